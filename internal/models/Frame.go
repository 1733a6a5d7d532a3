package models

// Frame is one step of the reveal animation.
type Frame struct {
	Index   int
	Total   int
	Subject string
	Label   string
	Final   bool
}
