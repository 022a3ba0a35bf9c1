package storage

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

const defaultCloudinaryEndpoint = "https://api.cloudinary.com"

// CloudinaryConfig holds account credentials for signed uploads.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// Endpoint overrides the API base URL.
	Endpoint string
}

// CloudinaryStore uploads images to Cloudinary with signed requests. Keys are
// Cloudinary public ids.
type CloudinaryStore struct {
	cfg    CloudinaryConfig
	client *http.Client
	now    func() time.Time
}

// NewCloudinaryStore validates credentials and returns a store.
func NewCloudinaryStore(cfg CloudinaryConfig, client *http.Client) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary: cloud name, api key and api secret are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultCloudinaryEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	cfg.Folder = strings.Trim(cfg.Folder, "/")
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CloudinaryStore{cfg: cfg, client: client, now: time.Now}, nil
}

type cloudinaryResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Result    string `json:"result"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// sign computes the request signature over public_id and timestamp.
func (s *CloudinaryStore) sign(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, s.cfg.APISecret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(payload)))
}

func (s *CloudinaryStore) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if s.cfg.Folder != "" {
		id = s.cfg.Folder + "/" + id
	}
	return id
}

func (s *CloudinaryStore) signedForm(publicID string) url.Values {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	form := url.Values{}
	form.Set("api_key", s.cfg.APIKey)
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("signature", s.sign(publicID, timestamp))
	return form
}

func (s *CloudinaryStore) post(ctx context.Context, action string, form url.Values) (*cloudinaryResponse, error) {
	endpoint := fmt.Sprintf("%s/v1_1/%s/image/%s", s.cfg.Endpoint, url.PathEscape(s.cfg.CloudName), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary %s: %w", action, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("cloudinary %s: read response: %w", action, err)
	}

	var out cloudinaryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("cloudinary %s: status %d: %w", action, res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK || out.Error.Message != "" {
		msg := out.Error.Message
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return nil, fmt.Errorf("cloudinary %s: status %d: %s", action, res.StatusCode, msg)
	}
	return &out, nil
}

// Put uploads data as a base64 data URI.
func (s *CloudinaryStore) Put(ctx context.Context, key, contentType string, data []byte) (*Object, error) {
	if _, err := cleanKey(key); err != nil {
		return nil, err
	}

	publicID := s.publicID(key)
	form := s.signedForm(publicID)
	form.Set("file", "data:"+contentType+";base64,"+base64.StdEncoding.EncodeToString(data))

	res, err := s.post(ctx, "upload", form)
	if err != nil {
		return nil, err
	}

	link := res.SecureURL
	if link == "" {
		link = res.URL
	}
	if link == "" {
		return nil, errors.New("cloudinary upload: response has no url")
	}
	if res.PublicID != "" {
		publicID = res.PublicID
	}
	return &Object{Key: publicID, URL: link}, nil
}

// Delete destroys an uploaded image by public id.
func (s *CloudinaryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	res, err := s.post(ctx, "destroy", s.signedForm(key))
	if err != nil {
		return err
	}
	switch res.Result {
	case "ok":
		return nil
	case "not found":
		return ErrNotFound
	default:
		return fmt.Errorf("cloudinary destroy: unexpected result %q", res.Result)
	}
}
