package jwtparse

// StringBodies marks, for each byte of s, whether that position lies strictly
// inside a quoted string body (quotes themselves excluded). A quote preceded
// by a backslash does not open or close a string. Mirrors the classification
// the circuit computes over the decoded payload.
func StringBodies(s string) []bool {
	bytes := []byte(s)
	bodies := make([]bool, len(bytes))
	if len(bytes) < 2 {
		return bodies
	}

	bodies[0] = false
	bodies[1] = bytes[0] == '"'

	for i := 2; i < len(bytes); i++ {
		switch {
		case !bodies[i-2] && bytes[i-1] == '"' && bytes[i-2] != '\\':
			// the previous byte opened a string
			bodies[i] = true
		case bodies[i-1] && bytes[i] == '"' && bytes[i-1] != '\\':
			// this byte closes the string it is part of
			bodies[i] = false
		default:
			bodies[i] = bodies[i-1]
		}
	}
	return bodies
}
