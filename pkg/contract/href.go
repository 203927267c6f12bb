package contract

import (
	"path"
	"strings"
)

const (
	MigrationPlansEndpoint = "migration-plans"
	TasksEndpoint          = "tasks"
	Pulp2ContentEndpoint   = "pulp2content"
)

// contentEndpoints maps a Pulp 3 content type to its endpoint below the API root.
var contentEndpoints = map[string]string{
	"rpm.package":  "content/rpm/packages",
	"rpm.advisory": "content/rpm/advisories",
}

func Href(apiRoot, endpoint, id string) string {
	return path.Join("/", apiRoot, endpoint, id) + "/"
}

func ContentHref(apiRoot, pulpType, id string) string {
	endpoint, ok := contentEndpoints[pulpType]
	if !ok {
		endpoint = path.Join("content", strings.ReplaceAll(pulpType, ".", "/"))
	}

	return Href(apiRoot, endpoint, id)
}

// IDFromHref returns the last path segment of href. A bare id is returned unchanged.
func IDFromHref(href string) string {
	trimmed := strings.Trim(href, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}

	return trimmed
}
