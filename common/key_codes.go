package common

// Key codes delivered by window key callbacks. Printable keys use their ASCII value, matching
// glfw.Key, so window backends pass key codes through unchanged.
const (
	KeyW     = 'W' // orbit up
	KeyS     = 'S' // orbit down
	KeyA     = 'A' // orbit left
	KeyD     = 'D' // orbit right
	KeyQ     = 'Q' // zoom in
	KeyE     = 'E' // zoom out
	KeyG     = 'G' // end tracking interruption
	KeyT     = 'T' // interrupt tracking
	KeySpace = ' ' // pause or resume rendering
)
