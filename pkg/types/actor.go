package types

// ActorRole identifies which side of the marketplace a user acts on.
type ActorRole string

const (
	ActorRolePlanner ActorRole = "planner"
	ActorRoleHelper  ActorRole = "helper"
	ActorRoleClient  ActorRole = "client"
	// ActorRoleAdmin is internal staff; it gates the statistics endpoints.
	ActorRoleAdmin ActorRole = "admin"
)

func (r ActorRole) Valid() bool {
	switch r {
	case ActorRolePlanner, ActorRoleHelper, ActorRoleClient, ActorRoleAdmin:
		return true
	}
	return false
}
