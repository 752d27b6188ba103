package azapi

// toPtrMap converts metadata into the pointer-valued map the SDK expects.
// A nil or empty map yields nil so the request carries no metadata headers.
func toPtrMap(metadata map[string]string) map[string]*string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		out[k] = &v
	}
	return out
}

// fromPtrMap converts SDK metadata into a plain map, skipping nil values.
func fromPtrMap(metadata map[string]*string) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if v == nil {
			continue
		}
		out[k] = *v
	}
	return out
}
