package repository

import (
	"context"
	"time"

	"microblog/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

type postModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;index"`
	Text      string    `gorm:"column:text"`
	Latitude  float64   `gorm:"column:latitude"`
	Longitude float64   `gorm:"column:longitude"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (postModel) TableName() string { return "posts" }

type imageAttachmentModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	PostID      string    `gorm:"column:post_id;index"`
	OriginalURL string    `gorm:"column:original_url"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (imageAttachmentModel) TableName() string { return "image_attachments" }

type imageVariantModel struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	AttachmentID string `gorm:"column:attachment_id;uniqueIndex:idx_attachment_label"`
	Label        string `gorm:"column:label;uniqueIndex:idx_attachment_label"`
	URL          string `gorm:"column:url"`
	Width        int    `gorm:"column:width"`
	Height       int    `gorm:"column:height"`
	Format       string `gorm:"column:format"`
}

func (imageVariantModel) TableName() string { return "image_variants" }

// Create inserts the post and its attachments in one transaction. Attachments
// carry no variants yet at creation time.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toPostModel(p)).Error; err != nil {
			return err
		}
		for i := range p.Images {
			if err := tx.Create(toAttachmentModel(&p.Images[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var pm postModel
	if err := r.db.WithContext(ctx).First(&pm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	posts, err := r.loadAggregates(ctx, []postModel{pm})
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// GetPage returns posts ordered newest first. A zero `before` means no
// cursor; otherwise only posts strictly before the (before, beforeID) sort
// key are returned. The id tiebreak keeps posts sharing the cursor's exact
// timestamp from being skipped.
func (r *PostRepository) GetPage(ctx context.Context, before time.Time, beforeID string, limit int) ([]domain.Post, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if !before.IsZero() {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", before, before, beforeID)
	}
	var rows []postModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.loadAggregates(ctx, rows)
}

// Save upserts the whole aggregate: the post row, its attachments, and all
// variants. Variants are keyed by (attachment_id, label) so a re-derived
// variant overwrites rather than duplicates.
func (r *PostRepository) Save(ctx context.Context, p *domain.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(toPostModel(p)).Error; err != nil {
			return err
		}
		for i := range p.Images {
			a := &p.Images[i]
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).Create(toAttachmentModel(a)).Error; err != nil {
				return err
			}
			for _, v := range a.Variants {
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "attachment_id"}, {Name: "label"}},
					DoUpdates: clause.AssignmentColumns([]string{"url", "width", "height", "format"}),
				}).Create(&imageVariantModel{
					AttachmentID: a.ID,
					Label:        v.Label,
					URL:          v.URL,
					Width:        v.Width,
					Height:       v.Height,
					Format:       v.Format,
				}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *PostRepository) loadAggregates(ctx context.Context, rows []postModel) ([]domain.Post, error) {
	if len(rows) == 0 {
		return []domain.Post{}, nil
	}
	postIDs := make([]string, len(rows))
	for i, pm := range rows {
		postIDs[i] = pm.ID
	}

	var attachments []imageAttachmentModel
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC, id ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}

	variantsByAttachment := map[string][]domain.ImageVariant{}
	if len(attachments) > 0 {
		attachmentIDs := make([]string, len(attachments))
		for i, am := range attachments {
			attachmentIDs[i] = am.ID
		}
		var variants []imageVariantModel
		if err := r.db.WithContext(ctx).
			Where("attachment_id IN ?", attachmentIDs).
			Order("id ASC").
			Find(&variants).Error; err != nil {
			return nil, err
		}
		for _, vm := range variants {
			variantsByAttachment[vm.AttachmentID] = append(variantsByAttachment[vm.AttachmentID], domain.ImageVariant{
				URL:    vm.URL,
				Width:  vm.Width,
				Height: vm.Height,
				Format: vm.Format,
				Label:  vm.Label,
			})
		}
	}

	attachmentsByPost := map[string][]domain.ImageAttachment{}
	for _, am := range attachments {
		attachmentsByPost[am.PostID] = append(attachmentsByPost[am.PostID], domain.ImageAttachment{
			ID:          am.ID,
			PostID:      am.PostID,
			OriginalURL: am.OriginalURL,
			Variants:    variantsByAttachment[am.ID],
			CreatedAt:   am.CreatedAt,
		})
	}

	posts := make([]domain.Post, len(rows))
	for i, pm := range rows {
		posts[i] = domain.Post{
			ID:        pm.ID,
			UserID:    pm.UserID,
			Text:      pm.Text,
			Location:  domain.GeoLocation{Latitude: pm.Latitude, Longitude: pm.Longitude},
			Images:    attachmentsByPost[pm.ID],
			CreatedAt: pm.CreatedAt,
			UpdatedAt: pm.UpdatedAt,
		}
	}
	return posts, nil
}

func toPostModel(p *domain.Post) *postModel {
	return &postModel{
		ID:        p.ID,
		UserID:    p.UserID,
		Text:      p.Text,
		Latitude:  p.Location.Latitude,
		Longitude: p.Location.Longitude,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAttachmentModel(a *domain.ImageAttachment) *imageAttachmentModel {
	return &imageAttachmentModel{
		ID:          a.ID,
		PostID:      a.PostID,
		OriginalURL: a.OriginalURL,
		CreatedAt:   a.CreatedAt,
	}
}
