package s3

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockBucket is the bucket name served by NewMockForTests.
const MockBucket = "recipebox-snapshots"

// NewMockForTests returns a Store wired to an in-process fake of the S3 REST
// API. Only the object calls the Store issues are understood.
func NewMockForTests() *Store {
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(DefaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIDMOCK", "mock-secret", "")),
	)
	fake := &fakeS3{objects: make(map[string]fakeObject)}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://s3.mock.local")
	})
	return newStore(client, MockBucket)
}

type fakeObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
	written     time.Time
}

func (o fakeObject) etag() string { return fmt.Sprintf(`"%x"`, md5.Sum(o.body)) }

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, key, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req.URL.Query().Get("prefix"))
	case req.Method == http.MethodHead:
		return f.head(key, false), nil
	case req.Method == http.MethodGet:
		return f.head(key, true), nil
	case req.Method == http.MethodPut:
		return f.put(key, req)
	case req.Method == http.MethodDelete:
		delete(f.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeS3) head(key string, withBody bool) *http.Response {
	obj, ok := f.objects[key]
	if !ok {
		return respond(http.StatusNotFound, nil, nil)
	}
	header := http.Header{
		"Content-Length": {strconv.Itoa(len(obj.body))},
		"Content-Type":   {obj.contentType},
		"Etag":           {obj.etag()},
		"Last-Modified":  {obj.written.Format(http.TimeFormat)},
	}
	for k, v := range obj.metadata {
		header.Set("X-Amz-Meta-"+k, v)
	}
	var body []byte
	if withBody {
		body = obj.body
	}
	return respond(http.StatusOK, header, body)
}

func (f *fakeS3) put(key string, req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") || req.Header.Get("X-Amz-Decoded-Content-Length") != "" {
		if decoded, ok := decodeChunked(body); ok {
			body = decoded
		}
	}
	obj := fakeObject{
		body:        body,
		contentType: req.Header.Get("Content-Type"),
		metadata:    make(map[string]string),
		written:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for name, values := range req.Header {
		if meta, ok := strings.CutPrefix(name, "X-Amz-Meta-"); ok && len(values) > 0 {
			obj.metadata[strings.ToLower(meta)] = values[0]
		}
	}
	f.objects[key] = obj
	return respond(http.StatusOK, http.Header{"Etag": {obj.etag()}}, nil), nil
}

type listResult struct {
	XMLName     xml.Name      `xml:"ListBucketResult"`
	IsTruncated bool          `xml:"IsTruncated"`
	Contents    []listContent `xml:"Contents"`
}

type listContent struct {
	Key          string `xml:"Key"`
	Size         int    `xml:"Size"`
	ETag         string `xml:"ETag"`
	LastModified string `xml:"LastModified"`
}

func (f *fakeS3) list(prefix string) (*http.Response, error) {
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	result := listResult{}
	for _, key := range keys {
		obj := f.objects[key]
		result.Contents = append(result.Contents, listContent{
			Key:          key,
			Size:         len(obj.body),
			ETag:         obj.etag(),
			LastModified: obj.written.Format(time.RFC3339),
		})
	}
	body, err := xml.Marshal(result)
	if err != nil {
		return nil, err
	}
	return respond(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, body), nil
}

func respond(status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: header, Body: io.NopCloser(bytes.NewReader(body))}
}

// decodeChunked unwraps a single-chunk aws-chunked payload:
// <hex size>[;chunk-signature=...]\r\n<body>\r\n0\r\n[trailers]\r\n
func decodeChunked(b []byte) ([]byte, bool) {
	head, rest, ok := bytes.Cut(b, []byte("\r\n"))
	if !ok {
		return nil, false
	}
	sizeHex, _, _ := bytes.Cut(head, []byte(";"))
	size, err := strconv.ParseInt(string(sizeHex), 16, 64)
	if err != nil || size < 0 || int64(len(rest)) < size {
		return nil, false
	}
	return rest[:size], true
}
