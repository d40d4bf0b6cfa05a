// Package store — кэш результатов анализа в Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"skin-analyzer/api/internal/analysis"
)

var ErrNotFound = sql.ErrNoRows

type AnalysisRepo struct{ DB *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{DB: db} }

// CachedRow — сохранённый результат одного анализа.
type CachedRow struct {
	ID        int64
	CreatedAt time.Time
	ImageHash string
	Engine    string
	Model     string
	Data      analysis.SkinData
	Report    string
}

// FindByHash достаёт самую свежую запись по ключу (image_hash + engine + model).
// Если maxAge > 0 — проверяет свежесть, иначе игнорирует возраст.
func (r *AnalysisRepo) FindByHash(ctx context.Context, imageHash, engine, model string, maxAge time.Duration) (*CachedRow, error) {
	const q = `
select id, created_at, image_hash, engine, model, result_json, coalesce(report,'')
from analysis_results
where image_hash = $1 and engine = $2 and model = $3
order by created_at desc
limit 1`
	row := r.DB.QueryRowContext(ctx, q, imageHash, engine, model)

	var (
		id     int64
		ts     time.Time
		hash   string
		eng    string
		mdl    string
		js     []byte
		report string
	)
	if err := row.Scan(&id, &ts, &hash, &eng, &mdl, &js, &report); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	var data analysis.SkinData
	if err := json.Unmarshal(js, &data); err != nil {
		// битый кэш равнозначен отсутствию записи
		return nil, ErrNotFound
	}
	return &CachedRow{
		ID:        id,
		CreatedAt: ts,
		ImageHash: hash,
		Engine:    eng,
		Model:     mdl,
		Data:      data,
		Report:    report,
	}, nil
}

// Upsert сохраняет/обновляет результат. PK: (image_hash, engine, model).
func (r *AnalysisRepo) Upsert(ctx context.Context, imageHash, engine, model string, data analysis.SkinData, report string) error {
	js, _ := json.Marshal(data)
	const q = `
insert into analysis_results(image_hash, engine, model, result_json, report)
values ($1,$2,$3,$4,$5)
on conflict (image_hash, engine, model)
do update set result_json=excluded.result_json, report=excluded.report, created_at=now()`
	_, err := r.DB.ExecContext(ctx, q, imageHash, engine, model, js, report)
	return err
}
