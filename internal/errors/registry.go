package errors

import (
	"github.com/vango-dev/vinterp/pkg/interp"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/vinterp/errors/"

// Codes referenced from code. The registry holds the full set.
const (
	CodeMalformedBatch   = "E100"
	CodeInvalidFrame     = "E101"
	CodeUnknownOp        = "E102"
	CodeStackUnderflow   = "E103"
	CodeUnknownNode      = "E104"
	CodeNodeInUse        = "E105"
	CodeMalformedEdit    = "E106"
	CodeUnknownTemplate  = "E107"
	CodeTemplateExists   = "E108"
	CodeBadPath          = "E109"
	CodeRootRemoval      = "E110"
	CodeDetached         = "E111"
	CodeViolation        = "E112"
	CodeCycle            = "E113"
	CodeHydration        = "E120"
	CodeHydrationMarker  = "E121"
	CodeHydrationRange   = "E122"
	CodeHydrationBound   = "E123"
	CodeHydrationSibling = "E124"
	CodeHydrationUnbound = "E125"
	CodeHydrationBusy    = "E126"
	CodeConfigNotFound   = "E130"
	CodeConfigInvalid    = "E131"
	CodeConfigFormat     = "E132"
	CodeUsage            = "E140"
	CodeInputUnreadable  = "E141"
	CodeServeFailed      = "E142"
)

var violationCodes = map[string]string{
	"stack_underflow":  CodeStackUnderflow,
	"unknown_node":     CodeUnknownNode,
	"node_in_use":      CodeNodeInUse,
	"malformed_edit":   CodeMalformedEdit,
	"unknown_template": CodeUnknownTemplate,
	"template_exists":  CodeTemplateExists,
	"bad_path":         CodeBadPath,
	"root_removal":     CodeRootRemoval,
	"detached":         CodeDetached,
	"cycle":            CodeCycle,
}

var mismatchCodes = map[interp.MismatchKind]string{
	interp.MismatchMalformed:    CodeHydrationMarker,
	interp.MismatchOutOfRange:   CodeHydrationRange,
	interp.MismatchAlreadyBound: CodeHydrationBound,
	interp.MismatchNoSibling:    CodeHydrationSibling,
	interp.MismatchUnbound:      CodeHydrationUnbound,
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Protocol Errors (E100-E119)
	// ============================================

	CodeMalformedBatch: {
		Category: CategoryProtocol,
		Message:  "Malformed edit batch",
		Detail:   "The batch payload could not be decoded. Nothing was applied.",
	},
	CodeInvalidFrame: {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "The frame header is truncated, names an unknown frame type or declares a payload over the size limit.",
	},
	CodeUnknownOp: {
		Category: CategoryProtocol,
		Message:  "Unknown opcode",
		Detail:   "An edit record carries an opcode this interpreter does not implement.",
	},
	CodeStackUnderflow: {
		Category: CategoryProtocol,
		Message:  "Stack underflow",
		Detail:   "The record pops more nodes than the operand stack holds.",
	},
	CodeUnknownNode: {
		Category: CategoryProtocol,
		Message:  "Unknown node",
		Detail:   "The record references an id that is not bound. It was never created or has been removed.",
	},
	CodeNodeInUse: {
		Category: CategoryProtocol,
		Message:  "Node id in use",
		Detail:   "A creation record targets an id that is still live. Ids may only be reused after removal.",
	},
	CodeMalformedEdit: {
		Category: CategoryProtocol,
		Message:  "Malformed edit",
		Detail:   "The record is missing a required field or carries an invalid one.",
	},
	CodeUnknownTemplate: {
		Category: CategoryProtocol,
		Message:  "Unknown template",
		Detail:   "LoadTemplate names a template that was never saved.",
	},
	CodeTemplateExists: {
		Category: CategoryProtocol,
		Message:  "Template already saved",
		Detail:   "Templates are immutable once saved; SaveTemplate cannot overwrite one.",
	},
	CodeBadPath: {
		Category: CategoryProtocol,
		Message:  "Path does not resolve",
		Detail:   "A child path walked off the end of the tree. Records before this one were applied and the operand stack was cleared.",
	},
	CodeRootRemoval: {
		Category: CategoryProtocol,
		Message:  "Cannot remove root",
		Detail:   "The mount root cannot be removed or replaced.",
	},
	CodeDetached: {
		Category: CategoryProtocol,
		Message:  "Anchor has no parent",
		Detail:   "A sibling insertion or replacement targets a node that is not attached to a parent.",
	},
	CodeViolation: {
		Category: CategoryProtocol,
		Message:  "Protocol violation",
		Detail:   "The batch was aborted on a record the interpreter could not apply.",
	},
	CodeCycle: {
		Category: CategoryProtocol,
		Message:  "Node would contain itself",
		Detail:   "A structural edit would attach a node beneath itself or one of its descendants. Records before this one were applied and the operand stack was cleared.",
	},

	// ============================================
	// Hydration Errors (E120-E129)
	// ============================================

	CodeHydration: {
		Category: CategoryHydration,
		Message:  "Hydration mismatch",
		Detail:   "The pre-rendered markup does not match the id list.",
	},
	CodeHydrationMarker: {
		Category: CategoryHydration,
		Message:  "Malformed hydration marker",
		Detail:   "A data-node-hydration attribute or node-id comment could not be parsed.",
	},
	CodeHydrationRange: {
		Category: CategoryHydration,
		Message:  "Hydration index out of range",
		Detail:   "A marker index is beyond the end of the id list.",
	},
	CodeHydrationBound: {
		Category: CategoryHydration,
		Message:  "Hydration id already bound",
		Detail:   "Two markers share an index, or the id is already live in the store.",
	},
	CodeHydrationSibling: {
		Category: CategoryHydration,
		Message:  "Hydration comment without sibling",
		Detail:   "A node-id comment is the last child of its parent, so there is nothing to bind.",
	},
	CodeHydrationUnbound: {
		Category: CategoryHydration,
		Message:  "Hydration id never bound",
		Detail:   "No marker in the markup refers to this index.",
	},
	CodeHydrationBusy: {
		Category: CategoryHydration,
		Message:  "Surface already populated",
		Detail:   "Hydration replaces the root's content and is only accepted before any nodes are bound.",
	},

	// ============================================
	// Configuration Errors (E130-E139)
	// ============================================

	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No vinterp.json or vinterp.yaml was found at the given path.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or failed validation.",
	},
	CodeConfigFormat: {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .yaml or .yml.",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	CodeUsage: {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with missing or invalid arguments.",
	},
	CodeInputUnreadable: {
		Category: CategoryCLI,
		Message:  "Input unreadable",
		Detail:   "The edit or markup file could not be read.",
	},
	CodeServeFailed: {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The host server stopped with an error.",
	},
}

func init() {
	for code, t := range registry {
		if t.DocURL == "" {
			t.DocURL = docBase + code
			registry[code] = t
		}
	}
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
