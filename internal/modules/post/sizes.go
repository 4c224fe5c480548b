package post

// Size is one entry of the variant catalog: the bounding box the transcoder
// targets and the label baked into the storage key.
type Size struct {
	Width  int
	Height int
	Label  string
}

// sizeCatalog is fixed and ordered; the derivation handler walks it exactly
// once per attachment per run. Changing it does not retroactively affect
// already-derived variants.
var sizeCatalog = []Size{
	{Width: 200, Height: 200, Label: "thumbnail"},
	{Width: 800, Height: 600, Label: "medium"},
	{Width: 1600, Height: 1200, Label: "large"},
}

// SizeCatalog returns the catalog in stable order.
func SizeCatalog() []Size {
	out := make([]Size, len(sizeCatalog))
	copy(out, sizeCatalog)
	return out
}
