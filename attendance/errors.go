package attendance

import "errors"

// กลุ่ม error ตายตัวของโดเมน — handler ชั้นนอก map เป็น HTTP code
// AlreadyExists เป็นผลลัพธ์ปกติจาก race ไม่ใช่ความผิดพลาด
var (
	ErrAlreadyExists      = errors.New("attendance already recorded for today")
	ErrDeviceMismatch     = errors.New("device mismatch")
	ErrNonSchoolDay       = errors.New("attendance is only allowed on school days")
	ErrOutsideWindow      = errors.New("outside attendance window")
	ErrOutsideGeofence    = errors.New("outside school geofence")
	ErrWrongNetwork       = errors.New("wrong wifi network")
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrFailedPrecondition = errors.New("failed precondition")
	ErrInvalidArgument    = errors.New("invalid argument")
)
