package analysis

import "math/rand"

type faceZone struct {
	X, Y, Width, Height float64
	Shape               string
}

// Базовые зоны лица в процентах от размера изображения.
var faceZones = map[string]faceZone{
	"forehead":    {X: 50, Y: 20, Width: 40, Height: 15, Shape: "ellipse"},
	"left_cheek":  {X: 25, Y: 45, Width: 20, Height: 25, Shape: "ellipse"},
	"right_cheek": {X: 75, Y: 45, Width: 20, Height: 25, Shape: "ellipse"},
	"nose":        {X: 50, Y: 50, Width: 15, Height: 20, Shape: "ellipse"},
	"chin":        {X: 50, Y: 75, Width: 25, Height: 15, Shape: "ellipse"},
	"t_zone":      {X: 50, Y: 40, Width: 30, Height: 30, Shape: "polygon"},
	"u_zone":      {X: 50, Y: 55, Width: 50, Height: 30, Shape: "polygon"},
	"periorbital": {X: 50, Y: 35, Width: 35, Height: 20, Shape: "ellipse"},
	"perioral":    {X: 50, Y: 65, Width: 25, Height: 15, Shape: "ellipse"},
}

// Типичные зоны проявления для каждого типа проблемы.
var concernZones = map[string][]string{
	"acne":         {"t_zone", "left_cheek", "right_cheek", "chin"},
	"pigmentation": {"left_cheek", "right_cheek", "forehead"},
	"pores":        {"t_zone", "nose"},
	"wrinkles":     {"forehead", "u_zone"},
	"hydration":    {"left_cheek", "right_cheek", "u_zone"},
	"oiliness":     {"t_zone", "nose"},
}

// SegmentFaceArea подбирает зону лица для маркера проблемы, когда точных
// координат нет. Небольшой случайный сдвиг — чтобы маркеры не ложились
// друг на друга при нескольких проблемах одной зоны.
func SegmentFaceArea(concernType string, value float64) *Position {
	available, ok := concernZones[concernType]
	if !ok || len(available) == 0 {
		available = []string{"t_zone"}
	}

	var zoneName string
	switch {
	case value > 50:
		zoneName = available[0]
	case len(available) > 1:
		zoneName = available[len(available)-1]
	default:
		zoneName = available[0]
	}

	zone, ok := faceZones[zoneName]
	if !ok {
		zone = faceZones["t_zone"]
	}

	return &Position{
		X:      zone.X + (rand.Float64()*10 - 5),
		Y:      zone.Y + (rand.Float64()*10 - 5),
		Width:  zone.Width,
		Height: zone.Height,
		Shape:  zone.Shape,
		Zone:   zoneName,
	}
}
