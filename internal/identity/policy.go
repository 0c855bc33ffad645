package identity

import (
	"strings"

	"github.com/suteetoe/tenant-onboarding/internal/model"
)

// PooledPath is the routing path shared by every Basic tenant.
const PooledPath = "app"

// Placement is where a tenant's users live and how it is addressed.
type Placement struct {
	Isolation   model.Isolation
	RoutingPath string
}

// RoutingPath keeps only ASCII letters and digits of the company name, lowercased.
// An empty company name yields an empty path.
func RoutingPath(companyName string) string {
	var b strings.Builder
	b.Grow(len(companyName))
	for i := 0; i < len(companyName); i++ {
		c := companyName[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

// PlacementFor maps a plan to its isolation model. Basic tenants are pooled
// under "app"; other plans are siloed under their own routing path, falling
// back to "app" when the company name has no usable characters.
func PlacementFor(plan model.Plan, companyName string) Placement {
	if plan == model.PlanBasic {
		return Placement{Isolation: model.IsolationPooled, RoutingPath: PooledPath}
	}
	path := RoutingPath(companyName)
	if path == "" {
		path = PooledPath
	}
	return Placement{Isolation: model.IsolationSiloed, RoutingPath: path}
}
