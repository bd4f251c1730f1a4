package core

// Group is a collision group bit, each body carries exactly one
type Group uint32

const (
	GroupGround Group = 1 << iota
	GroupEnvironment
	GroupDrone
	GroupPlane
	GroupProjectile
	GroupFlag
)

// GroupVehicles is the union of all vehicle groups
const GroupVehicles = GroupDrone | GroupPlane

// groupMasks is the static interaction table, pairs interact only when each side's mask admits the other
var groupMasks = map[Group]Group{
	GroupGround:      GroupVehicles | GroupProjectile,
	GroupEnvironment: GroupVehicles | GroupProjectile,
	GroupDrone:       GroupGround | GroupEnvironment | GroupVehicles | GroupProjectile | GroupFlag,
	GroupPlane:       GroupGround | GroupEnvironment | GroupVehicles | GroupProjectile | GroupFlag,
	GroupProjectile:  GroupGround | GroupEnvironment | GroupVehicles,
	GroupFlag:        GroupVehicles,
}

// Mask returns the interaction mask for g
func (g Group) Mask() Group {
	return groupMasks[g]
}

// Interacts reports whether two groups generate contacts
func (g Group) Interacts(other Group) bool {
	return g.Mask()&other != 0 && other.Mask()&g != 0
}

// IsVehicle reports whether g is a vehicle group
func (g Group) IsVehicle() bool {
	return g&GroupVehicles != 0
}

// GroupForKind maps a vehicle kind to its collision group
func GroupForKind(k Kind) Group {
	switch k {
	case KindDrone:
		return GroupDrone
	case KindPlane:
		return GroupPlane
	}
	return 0
}

func (g Group) String() string {
	switch g {
	case GroupGround:
		return "ground"
	case GroupEnvironment:
		return "environment"
	case GroupDrone:
		return "drone"
	case GroupPlane:
		return "plane"
	case GroupProjectile:
		return "projectile"
	case GroupFlag:
		return "flag"
	}
	return "none"
}
