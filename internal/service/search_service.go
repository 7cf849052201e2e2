package service

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/veilpost/dsa-core/internal/model"
)

const noticeIndexUID = "notices"

// NoticeIndexer keeps the admin full-text search index in sync with notice
// rows. All methods are best-effort: indexing failures are logged, never
// returned, so the primary write path does not depend on the search engine.
type NoticeIndexer interface {
	IndexNotice(notice *model.Notice)
	RemoveNotices(ids []uuid.UUID)
	Search(query string, limit int64) ([]string, error)
}

type noticeDocument struct {
	ID          string `json:"id"`
	ContentID   string `json:"contentId"`
	Category    string `json:"category"`
	ReasonText  string `json:"reasonText"`
	ContentType string `json:"contentType"`
	Status      string `json:"status"`
}

type meiliIndexer struct {
	client meilisearch.ServiceManager
}

// NewNoticeIndexer returns a meilisearch-backed indexer, or a no-op one when
// no host is configured.
func NewNoticeIndexer(host, masterKey string) NoticeIndexer {
	if host == "" {
		return noopIndexer{}
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(masterKey))
	idx := &meiliIndexer{client: client}
	idx.initIndex()
	return idx
}

func (m *meiliIndexer) initIndex() {
	searchable := []string{"contentId", "category", "reasonText", "contentType"}
	_, err := m.client.Index(noticeIndexUID).UpdateSearchableAttributes(&searchable)
	if err != nil {
		log.Printf("meilisearch: update searchable attributes: %v", err)
	}

	filterable := []string{"status"}
	filterableInterface := make([]any, len(filterable))
	for i, v := range filterable {
		filterableInterface[i] = v
	}
	_, err = m.client.Index(noticeIndexUID).UpdateFilterableAttributes(&filterableInterface)
	if err != nil {
		log.Printf("meilisearch: update filterable attributes: %v", err)
	}
}

func (m *meiliIndexer) IndexNotice(notice *model.Notice) {
	doc := noticeDocument{
		ID:          notice.ID.String(),
		ContentID:   notice.ContentID,
		ContentType: notice.ReportedContentType,
		Status:      string(notice.Status),
	}
	if notice.Category != nil {
		doc.Category = *notice.Category
	}
	if notice.ReasonText != nil {
		doc.ReasonText = *notice.ReasonText
	}

	if _, err := m.client.Index(noticeIndexUID).AddDocuments([]noticeDocument{doc}, strPtr("id")); err != nil {
		log.Printf("meilisearch: index notice %s: %v", doc.ID, err)
	}
}

func (m *meiliIndexer) RemoveNotices(ids []uuid.UUID) {
	for _, id := range ids {
		if _, err := m.client.Index(noticeIndexUID).DeleteDocument(id.String()); err != nil {
			log.Printf("meilisearch: delete notice %s: %v", id, err)
		}
	}
}

func (m *meiliIndexer) Search(query string, limit int64) ([]string, error) {
	res, err := m.client.Index(noticeIndexUID).Search(query, &meilisearch.SearchRequest{Limit: limit})
	if err != nil {
		return nil, err
	}

	return hitIDs(res.Hits), nil
}

// hitIDs extracts the document ids from raw search hits. Hits without a
// decodable string id are skipped.
func hitIDs(hits []meilisearch.Hit) []string {
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		var id string
		if err := json.Unmarshal(hit["id"], &id); err == nil && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func strPtr(s string) *string {
	return &s
}

// noopIndexer disables search when meilisearch is not configured.
type noopIndexer struct{}

func (noopIndexer) IndexNotice(*model.Notice)              {}
func (noopIndexer) RemoveNotices([]uuid.UUID)              {}
func (noopIndexer) Search(string, int64) ([]string, error) { return []string{}, nil }
