package auth

import "encoding/json"

// Response is the HTTP-shaped result every verb produces.
type Response struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// Ok builds a 200 response with the given pre-serialized body and
// headers.
func Ok(body string, headers map[string]string) Response {
	return Response{StatusCode: 200, Body: body, Headers: headers}
}

// NotFound builds an empty 404 response.
func NotFound() Response {
	return Response{StatusCode: 404}
}

// BadRequest builds a 400 response with a {"message": ...} body.
func BadRequest(message string) Response {
	return Response{StatusCode: 400, Body: messageBody(message)}
}

// messageBody serializes a message into the standard error body shape.
func messageBody(message string) string {
	b, _ := json.Marshal(map[string]string{"message": message})
	return string(b)
}
