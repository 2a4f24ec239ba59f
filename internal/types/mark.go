package types

import "time"

type MarkShape string

const (
	MarkShapeCircle   MarkShape = "circle"
	MarkShapeSquare   MarkShape = "square"
	MarkShapeTriangle MarkShape = "triangle"
	MarkShapeLine     MarkShape = "line"
)

type MarkColor string

const (
	MarkColorRed    MarkColor = "red"
	MarkColorGreen  MarkColor = "green"
	MarkColorBlue   MarkColor = "blue"
	MarkColorYellow MarkColor = "yellow"
	MarkColorOrange MarkColor = "orange"
)

// Mark is a chart annotation attached to a point in time and price.
type Mark struct {
	Time     time.Time `json:"time"`
	Price    float64   `json:"price"`
	Color    MarkColor `json:"color"`
	Shape    MarkShape `json:"shape"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Category string    `json:"category"`
}
