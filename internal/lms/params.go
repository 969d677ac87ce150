package lms

// ResolveParams resolves the naming collision between the OAuth2 client_id
// (RFC 6749, our api_key) and the LMS's own client_id (the tenant). The
// incoming parameter map is never mutated; the returned map carries the
// resolved names:
//
//   client_id       -> api_key (OAuth2 meaning)
//   lms_client_id   -> client_id (LMS tenant meaning)
//
// An explicit tenant override always wins over both parameters.
func ResolveParams(params map[string]string, tenantOverride string) map[string]string {
	resolved := make(map[string]string, len(params)+1)
	for k, v := range params {
		resolved[k] = v
	}

	if v, ok := params["client_id"]; ok {
		resolved["api_key"] = v
	}
	if v, ok := params["lms_client_id"]; ok {
		resolved["client_id"] = v
	}
	if tenantOverride != "" {
		resolved["client_id"] = tenantOverride
	}
	return resolved
}
