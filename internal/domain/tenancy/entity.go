// Package tenancy classifies every persisted entity type by how it reaches
// its tenant. The classification drives automatic tenant scoping.
package tenancy

import "github.com/retailhub/retailhub/internal/shared/constants"

// Entity identifies a persisted entity type.
type Entity string

const (
	EntityTenant        Entity = "tenant"
	EntityUser          Entity = "user"
	EntityShop          Entity = "shop"
	EntityProduct       Entity = "product"
	EntityCustomer      Entity = "customer"
	EntitySubscription  Entity = "subscription"
	EntityAuditLog      Entity = "audit_log"
	EntitySale          Entity = "sale"
	EntitySaleItem      Entity = "sale_item"
	EntityLeaveRequest  Entity = "leave_request"
	EntityNotification  Entity = "notification"
	EntityMessage       Entity = "message"
	EntityFeatureFlag   Entity = "feature_flag"
	EntitySystemSetting Entity = "system_setting"
)

// Kind is the scoping strategy of an entity type.
type Kind int

const (
	// KindUnclassified is the zero value: no automatic filter is applied.
	KindUnclassified Kind = iota
	// KindSelfTenanted entities carry a tenant_id column.
	KindSelfTenanted
	// KindAlternateKey entities carry the tenant id under another column name.
	KindAlternateKey
	// KindShopOwned entities reach the tenant through shop ownership.
	KindShopOwned
	// KindUserOwned entities reach the tenant through the owning user.
	KindUserOwned
	// KindTwoParty entities are visible when either party belongs to the tenant.
	KindTwoParty
	// KindRouteScoped entities have no generic path to a tenant. Route handlers
	// must filter them by hand.
	KindRouteScoped
)

func (k Kind) String() string {
	switch k {
	case KindSelfTenanted:
		return "self_tenanted"
	case KindAlternateKey:
		return "alternate_key"
	case KindShopOwned:
		return "shop_owned"
	case KindUserOwned:
		return "user_owned"
	case KindTwoParty:
		return "two_party"
	case KindRouteScoped:
		return "route_scoped"
	default:
		return "unclassified"
	}
}

// Relation is a belongs-to link from one entity to another.
type Relation struct {
	ForeignKey string
	Target     Entity
}

// Path is a chain of relation names ending at an entity with a tenant_id column.
type Path []string

// Classification describes how an entity type is confined to a tenant.
type Classification struct {
	Entity Entity
	Table  string
	Kind   Kind

	// TenantColumn is set for KindSelfTenanted and KindAlternateKey.
	TenantColumn string
	// TenantRelation names the association whose presence on a create payload
	// counts as an explicit tenant (a relation connect).
	TenantRelation string

	// TenantPath is set for KindShopOwned and KindUserOwned.
	TenantPath Path
	// Parties is set for KindTwoParty.
	Parties [2]Path

	Relations map[string]Relation
}

// InjectsOnCreate reports whether creates get the tenant id filled in.
func (c Classification) InjectsOnCreate() bool {
	return c.Kind == KindSelfTenanted || c.Kind == KindAlternateKey
}

const tenantColumn = "tenant_id"

var (
	shopRelation = map[string]Relation{
		"shop": {ForeignKey: "shop_id", Target: EntityShop},
	}
	tenantRelation = map[string]Relation{
		"tenant": {ForeignKey: tenantColumn, Target: EntityTenant},
	}
)

// registry is the single classification table. Every entity type must appear
// exactly once; see TestRegistry_EveryEntityClassified.
var registry = map[Entity]Classification{
	EntityTenant: {
		Table: constants.TableTenants,
		Kind:  KindRouteScoped,
	},
	EntityUser: {
		Table:          constants.TableUsers,
		Kind:           KindSelfTenanted,
		TenantColumn:   tenantColumn,
		TenantRelation: "Tenant",
		Relations:      tenantRelation,
	},
	EntityShop: {
		Table:          constants.TableShops,
		Kind:           KindSelfTenanted,
		TenantColumn:   tenantColumn,
		TenantRelation: "Tenant",
		Relations:      tenantRelation,
	},
	EntityProduct: {
		Table:        constants.TableProducts,
		Kind:         KindSelfTenanted,
		TenantColumn: tenantColumn,
	},
	EntityCustomer: {
		Table:        constants.TableCustomers,
		Kind:         KindSelfTenanted,
		TenantColumn: tenantColumn,
	},
	EntitySubscription: {
		Table:        constants.TableSubscriptions,
		Kind:         KindSelfTenanted,
		TenantColumn: tenantColumn,
	},
	EntityAuditLog: {
		Table:          constants.TableAuditLogs,
		Kind:           KindAlternateKey,
		TenantColumn:   "organization_id",
		TenantRelation: "Organization",
	},
	EntitySale: {
		Table:      constants.TableSales,
		Kind:       KindShopOwned,
		TenantPath: Path{"shop"},
		Relations:  shopRelation,
	},
	EntitySaleItem: {
		Table:      constants.TableSaleItems,
		Kind:       KindShopOwned,
		TenantPath: Path{"sale", "shop"},
		Relations: map[string]Relation{
			"sale": {ForeignKey: "sale_id", Target: EntitySale},
		},
	},
	EntityLeaveRequest: {
		Table:      constants.TableLeaveRequests,
		Kind:       KindUserOwned,
		TenantPath: Path{"user"},
		Relations: map[string]Relation{
			"user": {ForeignKey: "user_id", Target: EntityUser},
		},
	},
	EntityNotification: {
		Table:      constants.TableNotifications,
		Kind:       KindUserOwned,
		TenantPath: Path{"user"},
		Relations: map[string]Relation{
			"user": {ForeignKey: "user_id", Target: EntityUser},
		},
	},
	EntityMessage: {
		Table:   constants.TableMessages,
		Kind:    KindTwoParty,
		Parties: [2]Path{{"sender"}, {"receiver"}},
		Relations: map[string]Relation{
			"sender":   {ForeignKey: "sender_id", Target: EntityUser},
			"receiver": {ForeignKey: "receiver_id", Target: EntityUser},
		},
	},
	EntityFeatureFlag: {
		Table: constants.TableFeatureFlags,
		Kind:  KindRouteScoped,
	},
	EntitySystemSetting: {
		Table: constants.TableSystemSettings,
		Kind:  KindRouteScoped,
	},
}

func init() {
	for entity, c := range registry {
		c.Entity = entity
		registry[entity] = c
	}
}

// Classify returns the classification of entity. ok is false for an entity
// missing from the table; callers then apply no automatic tenant filter.
func Classify(entity Entity) (Classification, bool) {
	c, ok := registry[entity]
	return c, ok
}

// Entities lists every classified entity type.
func Entities() []Entity {
	out := make([]Entity, 0, len(registry))
	for e := range registry {
		out = append(out, e)
	}
	return out
}

// Model is implemented by persistence models so the accessor can find
// their classification from the value alone.
type Model interface {
	ScopeEntity() Entity
}
