package minio

import (
	"bufio"
	"context"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

const proofPrefix = "proofs"

// sniffLen is the number of bytes http.DetectContentType inspects.
const sniffLen = 512

// ProofStore uploads payment proofs under proofs/<membership>/<submission>.
type ProofStore struct {
	client *Client
	logger logging.Logger
	clock  func() time.Time
}

// NewProofStore returns a ProofStore backed by client.
func NewProofStore(client *Client, log logging.Logger) *ProofStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ProofStore{
		client: client,
		logger: log.Named("proofs"),
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// UploadProof stores the file and returns its reference.  The content type
// is sniffed from the first bytes when the caller did not supply one.
func (s *ProofStore) UploadProof(ctx context.Context, membershipID, submissionID string, proof *appmembership.ProofUpload) (*domain.ProofRef, error) {
	if s.client.isClosed() {
		return nil, ErrClientClosed
	}
	if proof == nil || proof.Body == nil {
		return nil, errors.InvalidParam("proof body is required")
	}
	if membershipID == "" || submissionID == "" {
		return nil, errors.InvalidParam("membership and submission ids are required")
	}

	body := bufio.NewReaderSize(proof.Body, sniffLen)
	contentType := strings.TrimSpace(proof.ContentType)
	if contentType == "" {
		head, _ := body.Peek(sniffLen)
		contentType = http.DetectContentType(head)
	}

	key := ProofKey(membershipID, submissionID, proof.FileName, contentType)
	size := proof.Size
	if size <= 0 {
		size = -1
	}
	opts := minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"membership-id": membershipID,
			"submission-id": submissionID,
			"uploaded-at":   s.clock().Format(time.RFC3339),
		},
		UserTags: map[string]string{"kind": "payment-proof"},
	}
	if proof.FileName != "" {
		opts.ContentDisposition = mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(proof.FileName)})
	}

	start := time.Now()
	info, err := s.client.api.PutObject(ctx, s.client.Bucket(), key, body, size, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to upload proof")
	}
	s.logger.Info("proof uploaded",
		logging.MembershipID(membershipID),
		logging.SubmissionID(submissionID),
		logging.String("key", key),
		logging.Int64("size", info.Size),
		logging.Duration("duration", time.Since(start)))

	return &domain.ProofRef{
		URL:         s.client.ObjectURL(key),
		Path:        key,
		ContentType: contentType,
	}, nil
}

// ProofKey builds the object key for a submission's proof.  The extension
// comes from the original file name, falling back to the content type.
func ProofKey(membershipID, submissionID, fileName, contentType string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	if ext == "" || len(ext) > 8 {
		ext = ""
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			switch mediaType {
			case "image/jpeg":
				ext = ".jpg"
			case "image/png":
				ext = ".png"
			case "application/pdf":
				ext = ".pdf"
			default:
				if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
					ext = exts[0]
				}
			}
		}
	}
	return path.Join(proofPrefix, membershipID, submissionID+ext)
}

//Personal.AI order the ending
