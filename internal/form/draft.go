package form

import (
	"errors"
	"strconv"
	"time"

	"github.com/stoneyard/shipment-bot/internal/models"
)

var (
	// ErrOutOfOrder is returned when a field is written before the fields
	// that precede it.
	ErrOutOfOrder = errors.New("field written out of step order")
	// ErrPhotoLimit is returned when a fifth photo is appended.
	ErrPhotoLimit = errors.New("photo limit reached")
)

// Draft accumulates validated fields of one conversation.
type Draft struct {
	models.Shipment
}

// Pending returns the first step whose field is still unset, or StepConfirm
// when every field is present. Photos count as present once one is attached.
func (d *Draft) Pending() Step {
	switch {
	case d.StoneTypeSize == "":
		return StepStoneType
	case d.Quantity == "":
		return StepQuantity
	case d.PalletCount == nil:
		return StepPallets
	case d.Destination == "":
		return StepDestination
	case d.DriverPhone == "":
		return StepPhone
	case len(d.PhotoRefs) == 0:
		return StepPhotos
	case d.DeliveryPrice == "":
		return StepPrice
	case d.LoaderName == "":
		return StepLoader
	}
	return StepConfirm
}

// Put writes a validated value for a text step.
func (d *Draft) Put(step Step, value string) error {
	if d.Pending() != step {
		return ErrOutOfOrder
	}
	switch step {
	case StepStoneType:
		d.StoneTypeSize = value
	case StepQuantity:
		d.Quantity = value
	case StepPallets:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		d.PalletCount = &n
	case StepDestination:
		d.Destination = value
	case StepPhone:
		d.DriverPhone = value
	case StepPrice:
		d.DeliveryPrice = value
	case StepLoader:
		d.LoaderName = value
	default:
		return ErrOutOfOrder
	}
	return nil
}

// AddPhoto appends a photo reference while the photo step is open.
func (d *Draft) AddPhoto(ref string) error {
	if p := d.Pending(); p != StepPhotos && p != StepPrice {
		return ErrOutOfOrder
	}
	if len(d.PhotoRefs) >= models.MaxPhotos {
		return ErrPhotoLimit
	}
	d.PhotoRefs = append(d.PhotoRefs, ref)
	return nil
}

// Snapshot returns an independent copy of the accumulated fields.
func (d *Draft) Snapshot() models.Shipment {
	return d.Shipment.Clone()
}

// Stamp sets the creation time.
func (d *Draft) Stamp(t time.Time) {
	d.CreatedAt = t
}
