package busapi

// Kind classifies a client failure.
type Kind int

const (
	// KindMessageBuild marks a malformed call target (path, interface or
	// method). Never retried.
	KindMessageBuild Kind = iota + 1
	// KindRetriesExhausted marks a call that stayed transient through the
	// maximum number of attempts.
	KindRetriesExhausted
	// KindPermanentCall marks a send failure whose error name is not in
	// the retry set.
	KindPermanentCall
	// KindPropertyRead marks a failed properties-read call.
	KindPropertyRead
	// KindPropertyTypeMismatch marks a property whose wire shape did not
	// coerce to the requested type.
	KindPropertyTypeMismatch
	// KindResponseShape marks a reply missing the requested field(s).
	KindResponseShape
	// KindVariantShape marks a variant or path with an unexpected shape.
	KindVariantShape
)

func (k Kind) String() string {
	switch k {
	case KindMessageBuild:
		return "message build"
	case KindRetriesExhausted:
		return "retries exhausted"
	case KindPermanentCall:
		return "permanent call failure"
	case KindPropertyRead:
		return "property read failure"
	case KindPropertyTypeMismatch:
		return "property type mismatch"
	case KindResponseShape:
		return "response shape"
	case KindVariantShape:
		return "variant shape"
	}
	return "unknown"
}

// Error is a classified client failure. Message is the full human-readable
// form, already logged by the client where the contract calls for it.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}
