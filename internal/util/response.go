package util

type Envelope map[string]any

// Success builds the {success:true, message} body the console expects; extra keys may be added.
func Success(message string) Envelope {
	return Envelope{"success": true, "message": message}
}

func Error(message string) Envelope {
	return Envelope{"success": false, "message": message}
}

func (e Envelope) With(key string, value any) Envelope {
	e[key] = value
	return e
}
