package session

import (
	"context"
	"fmt"

	"garage-chat/internal/appstate"
	"garage-chat/internal/docstore"
	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/models"

	"go.uber.org/zap"
)

// VehiclesCollection xe của khách
const VehiclesCollection = "vehicles"

// Vehicles CRUD xe: ghi docstore trước, thành công mới cập nhật app state
type Vehicles struct {
	docs docstore.Store
	app  *appstate.Store
	log  *zap.Logger
}

func NewVehicles(docs docstore.Store, app *appstate.Store, log *zap.Logger) *Vehicles {
	return &Vehicles{docs: docs, app: app, log: log.Named("vehicles")}
}

// Load nạp xe của user hiện tại vào app state
func (v *Vehicles) Load(ctx context.Context) ([]models.Vehicle, error) {
	user := v.app.CurrentUser()
	if user == nil {
		return nil, fmt.Errorf("load vehicles: %w", apperrors.ErrNotLoggedIn)
	}

	docs, err := v.docs.Find(ctx, docstore.Collection(VehiclesCollection).Where("id_user", docstore.OpEqual, user.UID))
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}

	out := make([]models.Vehicle, 0, len(docs))
	for _, d := range docs {
		vehicle, err := models.ParseVehicle(d.ID, d.Data)
		if err != nil {
			v.log.Warn("Skip malformed vehicle", zap.String("doc_id", d.ID), zap.Error(err))
			continue
		}
		out = append(out, vehicle)
		v.app.Dispatch(appstate.VehicleUpdated{Vehicle: vehicle})
	}
	return out, nil
}

// Add thêm xe cho user hiện tại
func (v *Vehicles) Add(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error) {
	user := v.app.CurrentUser()
	if user == nil {
		return models.Vehicle{}, fmt.Errorf("add vehicle: %w", apperrors.ErrNotLoggedIn)
	}
	vehicle.OwnerID = user.UID

	id, err := v.docs.Add(ctx, VehiclesCollection, vehicle.Fields())
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("add vehicle: %w", err)
	}
	vehicle.ID = id

	v.app.Dispatch(appstate.VehicleAdded{Vehicle: vehicle})
	return vehicle, nil
}

// Update ghi đè các trường của xe
func (v *Vehicles) Update(ctx context.Context, vehicle models.Vehicle) error {
	if vehicle.ID == "" {
		return fmt.Errorf("update vehicle: missing id: %w", apperrors.ErrInvalidInput)
	}
	if err := v.docs.Update(ctx, VehiclesCollection, vehicle.ID, vehicle.Fields()); err != nil {
		return fmt.Errorf("update vehicle %s: %w", vehicle.ID, err)
	}
	v.app.Dispatch(appstate.VehicleUpdated{Vehicle: vehicle})
	return nil
}

// Delete xóa xe
func (v *Vehicles) Delete(ctx context.Context, id string) error {
	if err := v.docs.Delete(ctx, VehiclesCollection, id); err != nil {
		return fmt.Errorf("delete vehicle %s: %w", id, err)
	}
	v.app.Dispatch(appstate.VehicleDeleted{ID: id})
	return nil
}
