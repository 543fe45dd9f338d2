package form

// Step is a stage of the shipment form.
type Step string

const (
	StepIdle        Step = "idle"
	StepStoneType   Step = "stone_type_size"
	StepQuantity    Step = "quantity"
	StepPallets     Step = "pallet_count"
	StepDestination Step = "destination"
	StepPhone       Step = "driver_phone"
	StepPhotos      Step = "photos"
	StepPrice       Step = "price"
	StepLoader      Step = "loader"
	StepConfirm     Step = "confirm"
)

// Steps lists every state in form order, idle first.
var Steps = []Step{
	StepIdle,
	StepStoneType,
	StepQuantity,
	StepPallets,
	StepDestination,
	StepPhone,
	StepPhotos,
	StepPrice,
	StepLoader,
	StepConfirm,
}

// Trigger is an event kind delivered to the state machine.
type Trigger string

const (
	TriggerStart   Trigger = "start"
	TriggerText    Trigger = "text"
	TriggerPhoto   Trigger = "photo"
	TriggerProceed Trigger = "proceed"
	TriggerCommit  Trigger = "commit"
	TriggerCancel  Trigger = "cancel"
)

// Triggers lists every trigger.
var Triggers = []Trigger{
	TriggerStart,
	TriggerText,
	TriggerPhoto,
	TriggerProceed,
	TriggerCommit,
	TriggerCancel,
}

func knownStep(s Step) bool {
	for _, step := range Steps {
		if step == s {
			return true
		}
	}
	return false
}

// next returns the step following s in form order. Confirm and idle have no
// successor inside the form.
func next(s Step) Step {
	for i, step := range Steps {
		if step == s && i+1 < len(Steps) {
			return Steps[i+1]
		}
	}
	return StepIdle
}
