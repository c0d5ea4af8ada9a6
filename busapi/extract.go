package busapi

// Response is one decoded method reply.
type Response struct {
	body []any
}

// Body returns the raw reply fields in wire order.
func (r *Response) Body() []any {
	return r.body
}

// Extract pulls the first field of a reply as T.
func Extract[T any](r *Response) (T, error) {
	var zero T
	if len(r.body) < 1 {
		return zero, errWrongResponseType()
	}
	value, ok := r.body[0].(T)
	if !ok {
		return zero, errWrongResponseType()
	}
	return value, nil
}

// ExtractTwo pulls the first two fields of a reply in order. Both coerce or
// neither is returned.
func ExtractTwo[T1, T2 any](r *Response) (T1, T2, error) {
	var zero1 T1
	var zero2 T2
	if len(r.body) < 2 {
		return zero1, zero2, errWrongResponseType()
	}
	first, ok1 := r.body[0].(T1)
	second, ok2 := r.body[1].(T2)
	if !ok1 || !ok2 {
		return zero1, zero2, errWrongResponseType()
	}
	return first, second, nil
}

func errWrongResponseType() *Error {
	return &Error{Kind: KindResponseShape, Message: "D-Bus wrong response type"}
}
