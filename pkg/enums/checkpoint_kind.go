package enums

import "slices"

// CheckpointKind classifies a logistics checkpoint independently of its display label.
type CheckpointKind string

const (
	CheckpointKindPickedUp       CheckpointKind = "picked_up"
	CheckpointKindInTransit      CheckpointKind = "in_transit"
	CheckpointKindOutForDelivery CheckpointKind = "out_for_delivery"
	CheckpointKindDelivered      CheckpointKind = "delivered"
	CheckpointKindException      CheckpointKind = "exception"
	CheckpointKindOther          CheckpointKind = "other"
)

var validCheckpointKinds = []CheckpointKind{
	CheckpointKindPickedUp,
	CheckpointKindInTransit,
	CheckpointKindOutForDelivery,
	CheckpointKindDelivered,
	CheckpointKindException,
	CheckpointKindOther,
}

// Display labels used by carriers and the mobile client.
const (
	CheckpointLabelPickedUp       = "已揽收"
	CheckpointLabelInTransit      = "运输中"
	CheckpointLabelOutForDelivery = "派送中"
	CheckpointLabelDelivered      = "已签收"
)

var checkpointKindByLabel = map[string]CheckpointKind{
	CheckpointLabelPickedUp:       CheckpointKindPickedUp,
	CheckpointLabelInTransit:      CheckpointKindInTransit,
	CheckpointLabelOutForDelivery: CheckpointKindOutForDelivery,
	CheckpointLabelDelivered:      CheckpointKindDelivered,
}

func (k CheckpointKind) String() string {
	return string(k)
}

func (k CheckpointKind) IsValid() bool {
	return slices.Contains(validCheckpointKinds, k)
}

func (k CheckpointKind) MarshalText() ([]byte, error) {
	return []byte(toWire(string(k))), nil
}

func (k *CheckpointKind) UnmarshalText(text []byte) error {
	parsed, err := ParseCheckpointKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseCheckpointKind(value string) (CheckpointKind, error) {
	return parseEnum(validCheckpointKinds, "checkpoint kind", value)
}

// CheckpointKindFromLabel infers a kind for clients that only send a display label.
func CheckpointKindFromLabel(label string) CheckpointKind {
	if kind, ok := checkpointKindByLabel[label]; ok {
		return kind
	}
	return CheckpointKindOther
}
