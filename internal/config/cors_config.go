package config

import "strings"

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

var _ CorsConfig = mainConfig{}

func (c mainConfig) GetAllowedOrigins() AllowedOrigins {
	origins := make(AllowedOrigins, len(c.vars.CorsOrigins))
	for _, o := range c.vars.CorsOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (c mainConfig) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE"
}

func (c mainConfig) GetAllowedHeaders() string {
	return "Content-Type, Authorization, X-CSRF-Token"
}
