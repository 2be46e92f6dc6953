package mcp

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// DisplayOutput describes one attached display.
type DisplayOutput struct {
	ID       uint32  `json:"id"`
	Name     string  `json:"name"`
	Primary  bool    `json:"primary"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Scale    float64 `json:"scale"`
	DPIScale float64 `json:"dpi_scale"`
}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []DisplayOutput `json:"displays"`
}

// SelectRegionInput is the input for the select_region tool.
type SelectRegionInput struct {
	Capture bool    `json:"capture,omitempty" jsonschema:"When true, freeze the screen first and return the selected pixels as an image"`
	Format  string  `json:"format,omitempty" jsonschema:"Image format when capture is set: png (default), jpeg, bmp or tiff"`
	Resize  float64 `json:"resize,omitempty" jsonschema:"Optional scale factor applied to the returned image (e.g. 0.5)"`
	Save    string  `json:"save,omitempty" jsonschema:"Optional file path to also write the captured image to"`
}

// SelectRegionOutput is the output for the select_region tool.
type SelectRegionOutput struct {
	Cancelled bool    `json:"cancelled"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Scale     float64 `json:"scale"`
	Geometry  string  `json:"geometry,omitempty"`
	Saved     string  `json:"saved,omitempty"`
}
