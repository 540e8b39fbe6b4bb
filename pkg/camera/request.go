package camera

import "slices"

// CaptureRequest is the generation-independent set of controls applied to
// the device. The legacy generation folds it into its parameters.
type CaptureRequest struct {
	Template Template
	// AETargetFpsRange is in the units the device reports.
	AETargetFpsRange     FramerateRange
	AEOn                 bool
	AELock               bool
	OpticalStabilization StabilizationMode
	VideoStabilization   StabilizationMode
	FocusMode            FocusMode
	FocusTrigger         FocusTrigger
	FocusRegions         []MeteringRectangle
	Flash                FlashMode
}

// SelectStabilization picks optical stabilization when the device supports
// it and then forces software stabilization off. Software stabilization is
// used only without optical support. Both unset means neither is available.
func SelectStabilization(optical, video []StabilizationMode) (StabilizationMode, StabilizationMode) {
	if slices.Contains(optical, StabilizationOn) {
		return StabilizationOn, StabilizationOff
	}
	if slices.Contains(video, StabilizationOn) {
		return StabilizationUnset, StabilizationOn
	}
	return StabilizationUnset, StabilizationUnset
}

// SelectFocusMode forces auto focus under the autofocus quirk, otherwise
// prefers continuous video focus when supported.
func SelectFocusMode(autofocusFix bool, supported []FocusMode) FocusMode {
	if autofocusFix {
		return FocusAuto
	}
	if slices.Contains(supported, FocusContinuousVideo) {
		return FocusContinuousVideo
	}
	return FocusUnset
}

// FocusArea returns the centred metering square used for explicit focus
// triggers: side is a quarter of the shorter sensor dimension.
func FocusArea(activeArray Rect) MeteringRectangle {
	side := min(activeArray.Width(), activeArray.Height()) / 4
	return MeteringRectangle{
		X:      activeArray.CenterX() - side/2,
		Y:      activeArray.CenterY() - side/2,
		Width:  side,
		Height: side,
		Weight: MeteringWeightMax - 1,
	}
}

// buildRequest assembles the steady-state request from the capabilities and
// the torch flag.
func buildRequest(caps *Capabilities, torch bool, trigger FocusTrigger) CaptureRequest {
	fps, _ := caps.BestFramerateRange()
	req := CaptureRequest{
		Template:         TemplateRecord,
		AETargetFpsRange: fps,
		AEOn:             true,
		AELock:           false,
		FocusTrigger:     trigger,
	}
	if caps.ImageStretchFix() {
		req.Template = TemplatePreview
	}
	req.OpticalStabilization, req.VideoStabilization = SelectStabilization(
		caps.OpticalStabilizationModes(), caps.VideoStabilizationModes())
	req.FocusMode = SelectFocusMode(caps.AutofocusFix(), caps.AutofocusModes())
	if torch {
		req.Flash = FlashTorch
	}
	return req
}
