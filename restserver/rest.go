// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

// This file contains a REST skeleton framework.
//
// The bulk of this is dealing with HTTP content type negotiation, and
// providing a standard way to deal with input and output values.
// Directory resources can be served as either JSON Home or plain
// JSON; everything else is plain JSON only.

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diffeo/go-jsonhome/restdata"
)

var typeMap = map[string]string{
	"text/json":                 restdata.JSONMediaType,
	restdata.JSONMediaType:      restdata.JSONMediaType,
	restdata.DirectoryMediaType: restdata.DirectoryMediaType,
}

// errBadAccept is returned from negotiateResponse() if the Accept:
// header is malformed (and no more specific error applies).
var errBadAccept = errors.New("Invalid Accept: header")

// errNotAcceptable is returned from negotiateResponse() if the Accept:
// header does not mention any media types we can actually return.
type errNotAcceptable struct{}

func (e errNotAcceptable) Error() string {
	return "No acceptable representation for response"
}

func (e errNotAcceptable) HTTPStatus() int {
	return http.StatusNotAcceptable
}

// errMethodNotAllowed is used within the resourceHandler implementation
// to flag an error if a particular HTTP method is not allowed.  This
// corresponds exactly to the 405 Method Not Allowed HTTP status code.
type errMethodNotAllowed struct {
	Method string
}

func (e errMethodNotAllowed) Error() string {
	return fmt.Sprintf("Method %v not allowed", e.Method)
}

func (e errMethodNotAllowed) HTTPStatus() int {
	return http.StatusMethodNotAllowed
}

// errUnavailable wraps an error that means the service cannot do its
// job at all right now, such as a shut-down fetch client.
type errUnavailable struct {
	Err error
}

func (e errUnavailable) Error() string {
	return e.Err.Error()
}

func (e errUnavailable) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

func (e errUnavailable) Unwrap() error {
	return e.Err
}

// responseCreated is returned as a value response from handler
// functions that want to indicate that a new resource was created.
type responseCreated struct {
	// Location holds the canonical URL to the newly created resource.
	Location string

	// Body contains the object sent in the body of the response.
	Body interface{}
}

type resourceHandler struct {
	// Representation is an object representing this resource.
	// A copy of this object will be passed to Post handlers.  If
	// nil, request bodies are ignored.
	Representation interface{}

	// Directory is true if this resource is a directory document,
	// which can also be returned as restdata.DirectoryMediaType.
	Directory bool

	// MaxAge, if positive, is sent as a Cache-Control: header on
	// successful GET responses.
	MaxAge time.Duration

	// Logger receives records of failed requests.
	Logger logrus.FieldLogger

	// Context reads an HTTP request and produces a context object.
	Context func(req *http.Request) (*context, error)

	// Get, if non-nil, returns a representation of the object.
	Get func(*context) (interface{}, error)

	// Post, if non-nil, takes some arbitrary action.  The
	// interface parameter is guaranteed to be the same type as
	// Representation, though in this case this is not necessarily
	// a representation of the resource.  The return can be any
	// useful return value, include responseCreated.
	Post func(*context, interface{}) (interface{}, error)

	// Delete, if non-nil, deletes the object.  The return can be
	// any useful return value.
	Delete func(*context) (interface{}, error)
}

func (h *resourceHandler) logger() logrus.FieldLogger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

func (h *resourceHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	var (
		ctx          *context
		in, out      interface{}
		err          error
		status       int
		responseType string
	)

	// Recover from panics by sending an HTTP error.
	defer func() {
		if recovered := recover(); recovered != nil {
			response := restdata.ErrorResponse{}
			response.FromPanic(recovered)
			h.logger().WithFields(logrus.Fields{
				"err":   response.Message,
				"stack": response.Stack,
			}).Error("panic in request handler")
			h.write(resp, http.StatusInternalServerError, restdata.JSONMediaType, response)
		}
	}()

	// Start by trying to come up with a response type, even before
	// trying to parse the input.  This determines what format an
	// error message could be sent back as.
	if err == nil {
		// Errors here by default are in the header setup
		status = http.StatusBadRequest
		responseType, err = negotiateResponse(req, h.Directory)
		if err != nil {
			// Gotta pick something
			responseType = restdata.JSONMediaType
		}
	}

	// Get bits from URL parameters
	if err == nil {
		ctx, err = h.Context(req)
	}
	if ctx != nil {
		ctx.ResponseType = responseType
	}

	// Read the (JSON?) body, if it's there
	if err == nil && req.Method == http.MethodPost && h.Representation != nil {
		// Make a new object of the same type as h.Representation
		ptr := reflect.New(reflect.TypeOf(h.Representation))

		// Then decode the message body into that object
		contentType := req.Header.Get("Content-Type")
		err = restdata.Decode(contentType, req.Body, ptr.Interface())
		if _, isMediaType := err.(restdata.ErrUnsupportedMediaType); err != nil && !isMediaType {
			err = restdata.ErrBadRequest{Err: err}
		}
		if err == nil {
			in = ptr.Elem().Interface()
		}
	}

	// Actually call the handler method
	if err == nil {
		// We will return this if the method is unexpected or
		// we don't have a handler for it
		err = errMethodNotAllowed{Method: req.Method}
		// If anything else goes wrong here, it's an error in
		// client code
		status = http.StatusInternalServerError
		switch req.Method {
		case http.MethodGet, http.MethodHead:
			if h.Get != nil {
				out, err = h.Get(ctx)
			}
		case http.MethodPost:
			if h.Post != nil {
				out, err = h.Post(ctx, in)
			}
		case http.MethodDelete:
			if h.Delete != nil {
				out, err = h.Delete(ctx)
			}
		}
	}

	// Fix up the final result based on what we know.
	if err != nil {
		// Pick a better status code if we know of one
		if errS, hasStatus := err.(restdata.ErrorStatus); hasStatus {
			status = errS.HTTPStatus()
		}
		if status >= http.StatusInternalServerError {
			h.logger().WithFields(logrus.Fields{
				"err":    err,
				"method": req.Method,
				"path":   req.URL.Path,
			}).Warn("request failed")
		}
		response := restdata.ErrorResponse{Error: "error", Message: err.Error()}
		response.FromError(err)
		out = response
		// Errors are never directory documents
		if typeMap[responseType] == restdata.DirectoryMediaType {
			responseType = restdata.JSONMediaType
		}
	} else if out == nil {
		status = http.StatusNoContent
	} else if created, isCreated := out.(responseCreated); isCreated {
		status = http.StatusCreated
		if created.Location != "" {
			resp.Header().Set("Location", created.Location)
		}
		out = created.Body
	} else {
		status = http.StatusOK
		if h.MaxAge > 0 && (req.Method == http.MethodGet || req.Method == http.MethodHead) {
			resp.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(h.MaxAge.Seconds())))
		}
	}
	if req.Method == http.MethodHead {
		// Still announce the type of the body we would send
		if out != nil {
			resp.Header().Set("Content-Type", responseType)
		}
		out = nil
	}

	h.write(resp, status, responseType, out)
}

// write encodes out, if it is non-nil, and sends it with an HTTP
// status.  The body is fully encoded before anything is sent, so an
// encoding failure can still become a 500 error.  Failures writing to
// the network are only logged, since the status line is already gone.
func (h *resourceHandler) write(resp http.ResponseWriter, status int, responseType string, out interface{}) {
	var body bytes.Buffer
	if out != nil {
		if err := restdata.Encode(&body, out); err != nil {
			status = http.StatusInternalServerError
			responseType = restdata.JSONMediaType
			body.Reset()
			response := restdata.ErrorResponse{Error: "error", Message: err.Error()}
			_ = restdata.Encode(&body, response)
		}
		resp.Header().Set("Content-Type", responseType)
	}
	resp.WriteHeader(status)
	if body.Len() > 0 {
		if _, err := resp.Write(body.Bytes()); err != nil {
			h.logger().WithFields(logrus.Fields{"err": err}).Debug("could not write response")
		}
	}
}

// negotiateResponse returns a supported MIME type for the response
// body, following the path laid out in RFC 7231 section 5.3.  The
// JSON Home type is only acceptable if directory is true, and is
// then preferred for wildcards.
func negotiateResponse(req *http.Request, directory bool) (string, error) {
	accept := req.Header.Get("Accept")
	if accept == "" {
		accept = "*/*"
	}
	bestType := ""
	bestQ := 0.0
	mediaRanges := strings.Split(accept, ",")
	for _, mediaRange := range mediaRanges {
		mediaRange = strings.TrimSpace(mediaRange)
		mediaType, params, err := mime.ParseMediaType(mediaRange)
		if err != nil {
			return "", err
		}

		// What is the "q" ("quality") parameter for this type?
		// If it is less than the best known so far, skip it
		q := 1.0
		if qStr, haveQ := params["q"]; haveQ {
			q, err = strconv.ParseFloat(qStr, 64)
			if err != nil {
				return "", err
			}
			if q < 0.0 || q > 1.0 {
				return "", errBadAccept
			}
		}
		if q < bestQ {
			continue
		}

		// This is acceptable if it's listed in the type
		// map; or it's one of a couple of specific wildcards.
		// Also need to handle wildcard precedence.  So:
		if mediaType == "*/*" {
			// Doesn't override anything.
			if q > bestQ {
				bestType = mediaType
				bestQ = q
			}
		} else if mediaType == "text/*" || mediaType == "application/*" {
			// Only overrides "*/*".
			if q > bestQ || bestType == "*/*" {
				bestType = mediaType
				bestQ = q
			}
		} else if canonical, knownType := typeMap[mediaType]; knownType {
			if canonical == restdata.DirectoryMediaType && !directory {
				continue
			}
			// Overrides any wildcard.  We want the first one
			// at a given q to win.
			if q > bestQ || bestType == "*/*" || bestType == "text/*" || bestType == "application/*" {
				bestType = mediaType
				bestQ = q
			}
		}
		// Otherwise we don't recognize this type at all, so
		// just drop it.
	}
	// If this failed to win, return an error
	if bestQ == 0.0 {
		return "", errNotAcceptable{}
	}
	switch bestType {
	case "*/*", "application/*":
		if directory {
			return restdata.DirectoryMediaType, nil
		}
		return restdata.JSONMediaType, nil
	case "text/*":
		return "text/json", nil
	default:
		return bestType, nil
	}
}
