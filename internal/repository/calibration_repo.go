package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kdomac-14/AC215-HARV/internal/model"
)

// CalibrationRepository 地理围栏标定数据访问接口
type CalibrationRepository interface {
	// Set 覆盖写入标定（同 course_id 后写覆盖先写），并刷新 updated_at
	Set(ctx context.Context, cal *model.Calibration) error
	Get(ctx context.Context, courseID int64) (*model.Calibration, error)
}

type calibrationRepo struct {
	db *gorm.DB
}

// NewCalibrationRepo 创建 CalibrationRepository 实例
func NewCalibrationRepo(db *gorm.DB) CalibrationRepository {
	return &calibrationRepo{db: db}
}

func (r *calibrationRepo) Set(ctx context.Context, cal *model.Calibration) error {
	cal.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"lat", "lon", "epsilon_m", "updated_at"}),
		}).
		Create(cal).Error
}

func (r *calibrationRepo) Get(ctx context.Context, courseID int64) (*model.Calibration, error) {
	var cal model.Calibration
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		First(&cal).Error
	if err != nil {
		return nil, err
	}
	return &cal, nil
}
