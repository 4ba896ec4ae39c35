package httpapi

// defaultMaxBody caps /invocations request documents at 1 MiB.
const defaultMaxBody int64 = 1 << 20

var maxBodyBytes = defaultMaxBody

// SetMaxBodyBytes overrides the request body cap. Non-positive values
// restore the default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = defaultMaxBody
	}
	maxBodyBytes = n
}

// corsPolicy holds the opt-in CORS allow-lists applied when the mux is
// built. The zero value means no CORS middleware at all.
type corsPolicy struct {
	enabled bool
	origins []string
	methods []string
	headers []string
}

var corsOpts corsPolicy

// SetCORSOptions enables CORS with the given allow-lists. Slices are copied
// so later caller mutation cannot leak into the policy.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsOpts = corsPolicy{
		enabled: enabled,
		origins: append([]string(nil), origins...),
		methods: append([]string(nil), methods...),
		headers: append([]string(nil), headers...),
	}
}
