package models

// FormatData is a negotiated capture format.
type FormatData struct {
	Width       int    `json:"width" example:"1280" doc:"Frame width in pixels"`
	Height      int    `json:"height" example:"720" doc:"Frame height in pixels"`
	FpsMin      int    `json:"fps_min" example:"15000" doc:"Minimum frame rate in milli-fps"`
	FpsMax      int    `json:"fps_max" example:"30000" doc:"Maximum frame rate in milli-fps"`
	PixelFormat string `json:"pixel_format" example:"texture" doc:"Pixel format of delivered frames"`
}

// TargetData is the requested capture geometry.
type TargetData struct {
	Width  int `json:"width" minimum:"1" example:"1280" doc:"Requested width"`
	Height int `json:"height" minimum:"1" example:"720" doc:"Requested height"`
	Fps    int `json:"fps" minimum:"1" example:"30" doc:"Requested minimum frame rate"`
}

// CameraStatusData describes the managed camera.
type CameraStatusData struct {
	CameraID        string      `json:"camera_id" example:"0" doc:"Camera identifier"`
	State           string      `json:"state" example:"running" enum:"idle,opening,running,stopped" doc:"Session state"`
	Generation      string      `json:"generation" example:"request" enum:"request,legacy" doc:"Driver generation"`
	Facing          string      `json:"facing" example:"back" doc:"Lens facing"`
	Format          *FormatData `json:"format,omitempty" doc:"Negotiated capture format while running"`
	Target          TargetData  `json:"target" doc:"Requested capture geometry"`
	Torch           bool        `json:"torch" doc:"Torch flag"`
	AutofocusFix    bool        `json:"autofocus_fix" doc:"Whether explicit autofocus triggering is enabled"`
	DisplayRotation int         `json:"display_rotation" example:"0" doc:"Display rotation in degrees"`
	FrameRotation   int         `json:"frame_rotation" example:"90" doc:"Rotation of the last delivered frame"`
	FramesDelivered uint64      `json:"frames_delivered" example:"1800" doc:"Frames delivered since start"`
	BlackDropped    uint64      `json:"black_frames_dropped" example:"3" doc:"Leading black frames dropped"`
	Reacquires      int         `json:"reacquires" example:"0" doc:"Pending reacquire attempts after a disconnect"`
	LastError       string      `json:"last_error,omitempty" doc:"Last session failure"`
}

type CameraStatusResponse struct {
	Body CameraStatusData
}

type TorchRequest struct {
	Body struct {
		Enabled bool `json:"enabled" example:"true" doc:"Whether the torch should be on"`
	}
}

type TargetRequest struct {
	Body TargetData
}

// RestartData reports how a change was applied.
type RestartData struct {
	Recreated bool `json:"recreated" doc:"Whether the session had to be recreated"`
}

type RestartResponse struct {
	Body RestartData
}

type DisplayRotationRequest struct {
	Body struct {
		Degrees int `json:"degrees" enum:"0,90,180,270" example:"90" doc:"Display rotation in degrees"`
	}
}
