// Package azapi isolates the Azure SDK behind small interfaces.
//
// ServiceAPI, ContainerAPI and BlobAPI mirror the account, container and blob
// client hierarchy of azblob. Service, Container and Blob implement them over
// the SDK, and Factory builds a ServiceAPI from a parsed connection string.
package azapi
