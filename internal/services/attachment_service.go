package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"

	"github.com/dranzer2021/task-management-system/internal/constants"
	"github.com/dranzer2021/task-management-system/internal/models"
	"github.com/dranzer2021/task-management-system/internal/repository"
	"github.com/dranzer2021/task-management-system/internal/storage"
)

var (
	ErrNoFilesUploaded    = errors.New("no files uploaded")
	ErrTooManyAttachments = fmt.Errorf("a task can have at most %d attachments", constants.MaxAttachmentsPerTask)
	ErrFileTooLarge       = errors.New("file size too large, maximum size is 5MB")
	ErrFileTypeNotAllowed = errors.New("invalid file type, allowed types: PDF, DOC, DOCX, TXT")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// AttachmentService keeps a task's attachment records and the stored
// artifacts in lockstep. Uploads are all-or-nothing per batch; artifact
// deletion is best-effort so a failing disk never blocks a record delete.
type AttachmentService struct {
	taskRepo repository.TaskRepository
	store    *storage.LocalStore
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(taskRepo repository.TaskRepository, store *storage.LocalStore) *AttachmentService {
	return &AttachmentService{
		taskRepo: taskRepo,
		store:    store,
	}
}

// Upload validates and stores a batch of files against a task, then appends
// the attachment records. Either the whole batch lands or none of it does.
// The task's Attachments slice is updated in place on success.
func (s *AttachmentService) Upload(task *models.Task, files []*multipart.FileHeader) ([]models.Attachment, error) {
	if err := s.validateBatch(len(task.Attachments), files); err != nil {
		return nil, err
	}

	records, err := s.storeBatch(files)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.AddAttachments(task.ID, records); err != nil {
		s.DiscardArtifacts(records)
		return nil, fmt.Errorf("failed to record attachments: %w", err)
	}

	task.Attachments = append(task.Attachments, records...)
	return records, nil
}

// Download locates an attachment within a task and opens its artifact.
func (s *AttachmentService) Download(task *models.Task, attachmentID uint64) (*models.Attachment, io.ReadCloser, error) {
	att := findAttachment(task, attachmentID)
	if att == nil {
		return nil, nil, ErrAttachmentNotFound
	}

	reader, err := s.store.Open(att.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open attachment %d: %w", att.ID, err)
	}

	return att, reader, nil
}

// Delete removes one attachment. The artifact removal is best-effort: a
// failure is logged and the record is still deleted.
func (s *AttachmentService) Delete(task *models.Task, attachmentID uint64) error {
	att := findAttachment(task, attachmentID)
	if att == nil {
		return ErrAttachmentNotFound
	}

	if err := s.store.Remove(att.StorageKey); err != nil {
		log.Printf("failed to delete attachment artifact %s: %v", att.StorageKey, err)
	}

	if err := s.taskRepo.RemoveAttachment(task.ID, att.ID); err != nil {
		return fmt.Errorf("failed to remove attachment record: %w", err)
	}

	kept := task.Attachments[:0]
	for _, a := range task.Attachments {
		if a.ID != att.ID {
			kept = append(kept, a)
		}
	}
	task.Attachments = kept
	return nil
}

// RemoveAll deletes every attachment of a task, artifacts best-effort,
// records in one write.
func (s *AttachmentService) RemoveAll(task *models.Task) error {
	s.DiscardArtifacts(task.Attachments)

	if err := s.taskRepo.RemoveAllAttachments(task.ID); err != nil {
		return fmt.Errorf("failed to remove attachment records: %w", err)
	}

	task.Attachments = nil
	return nil
}

// DiscardArtifacts removes stored artifacts, logging individual failures.
func (s *AttachmentService) DiscardArtifacts(records []models.Attachment) {
	for _, att := range records {
		if err := s.store.Remove(att.StorageKey); err != nil {
			log.Printf("failed to delete attachment artifact %s: %v", att.StorageKey, err)
		}
	}
}

// validateBatch rejects the whole batch before anything touches the disk.
func (s *AttachmentService) validateBatch(existing int, files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return ErrNoFilesUploaded
	}
	if existing+len(files) > constants.MaxAttachmentsPerTask {
		return ErrTooManyAttachments
	}

	for _, f := range files {
		if f.Size > constants.MaxAttachmentSize {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, f.Filename)
		}
		if !allowedMimeTypes[mediaType(f)] {
			return fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, f.Filename)
		}
	}

	return nil
}

// storeBatch writes every file to the store. On any failure the artifacts
// already written for this batch are removed before returning.
func (s *AttachmentService) storeBatch(files []*multipart.FileHeader) ([]models.Attachment, error) {
	records := make([]models.Attachment, 0, len(files))

	for _, f := range files {
		src, err := f.Open()
		if err != nil {
			s.DiscardArtifacts(records)
			return nil, fmt.Errorf("failed to read uploaded file %s: %w", f.Filename, err)
		}

		key, size, err := s.store.Save(f.Filename, src)
		src.Close()
		if err != nil {
			s.DiscardArtifacts(records)
			return nil, fmt.Errorf("failed to store file %s: %w", f.Filename, err)
		}

		records = append(records, models.Attachment{
			Filename:   f.Filename,
			StorageKey: key,
			MimeType:   mediaType(f),
			Size:       size,
		})
	}

	return records, nil
}

func findAttachment(task *models.Task, attachmentID uint64) *models.Attachment {
	for i := range task.Attachments {
		if task.Attachments[i].ID == attachmentID {
			return &task.Attachments[i]
		}
	}
	return nil
}

func mediaType(f *multipart.FileHeader) string {
	ct := f.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}
