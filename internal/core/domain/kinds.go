package domain

type ResourceKind string

const (
	KindInstance ResourceKind = "Instance"
	KindVolume   ResourceKind = "Volume"
	KindSnapshot ResourceKind = "Snapshot"
)

func (rk ResourceKind) String() string {
	return string(rk)
}

type Operation string

const (
	OpListInstances  Operation = "ListInstances"
	OpCreateSnapshot Operation = "CreateSnapshot"
	OpTagSnapshot    Operation = "TagSnapshot"
	OpListSnapshots  Operation = "ListSnapshots"
	OpDeleteSnapshot Operation = "DeleteSnapshot"
)
