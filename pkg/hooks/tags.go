package hooks

// Filter tags.
const (
	FilterAvailableElements       = "builder:available-elements"
	FilterValidateElementCreation = "builder:validate-element-creation"
)

// Action tags.
const (
	ActionInitialized       = "builder:initialized"
	ActionElementSelected   = "editor:element:selected"
	ActionElementDeselected = "editor:element:deselected"
	ActionElementCopied     = "editor:element:copied"
	ActionElementPasted     = "editor:element:pasted"
	ActionDocumentLoaded    = "editor:document:loaded"
	ActionDocumentSaved     = "editor:document:saved"
	ActionElementCreated    = "editor:element:created"
	ActionElementUpdated    = "editor:element:updated"
	ActionElementMoved      = "editor:element:moved"
	ActionElementCloned     = "editor:element:cloned"
	ActionElementDestroyed  = "editor:element:destroyed"
)
