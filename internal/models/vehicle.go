package models

import (
	"fmt"
	"time"
)

// Vehicle xe của khách, collection "vehicles"
type Vehicle struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"id_user"`
	Name         string    `json:"vehicle_name"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Color        string    `json:"color"`
	LicensePlate string    `json:"license_plate"`
	VIN          string    `json:"vin_num"`
	Km           int64     `json:"km"`
	PurchaseDate time.Time `json:"purchase_date"`
	ImageURL     string    `json:"image_url,omitempty"`
}

// ParseVehicle chuyển document "vehicles" thành Vehicle
func ParseVehicle(id string, data map[string]interface{}) (Vehicle, error) {
	if id == "" {
		return Vehicle{}, fmt.Errorf("parse vehicle: missing id")
	}
	f := Fields(data)
	v := Vehicle{
		ID:           id,
		OwnerID:      f.String("id_user"),
		Name:         f.String("vehicle_name"),
		Brand:        f.String("brand"),
		Model:        f.String("model"),
		Color:        f.String("color"),
		LicensePlate: f.String("license_plate"),
		VIN:          f.String("vin_num"),
		Km:           f.Int("km"),
		ImageURL:     f.String("image_url"),
	}
	v.PurchaseDate, _ = f.Time("purchase_date")
	return v, nil
}

// Fields chuyển Vehicle về dạng map để ghi vào docstore (không có id)
func (v *Vehicle) Fields() map[string]interface{} {
	out := map[string]interface{}{
		"id_user":       v.OwnerID,
		"vehicle_name":  v.Name,
		"brand":         v.Brand,
		"model":         v.Model,
		"color":         v.Color,
		"license_plate": v.LicensePlate,
		"vin_num":       v.VIN,
		"km":            v.Km,
		"image_url":     v.ImageURL,
	}
	if !v.PurchaseDate.IsZero() {
		out["purchase_date"] = v.PurchaseDate
	}
	return out
}
