package mathutil

// Default scene camera framing the avatar standing at the origin. Head units
// are scaled by HeadScale, so a full body is roughly 10 units tall.
var (
	CameraEye    = Vec3{10, 10, 22}
	CameraTarget = Vec3{0, 7, 0}
	CameraUp     = Vec3{0, 1, 0}
)

const (
	CameraFovY = 45.0 // degrees
	CameraNear = 0.1
	CameraFar  = 1000.0

	// HeadScale converts evaluator head units to scene units.
	HeadScale = 0.1
)
