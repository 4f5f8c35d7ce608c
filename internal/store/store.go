// 包 store：PostgreSQL 数据访问层，行政区树的导入/加载与查询统计
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"address-api/internal/division"
	"address-api/internal/logger"

	"github.com/lib/pq"
)

// Store：持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// 文档注释：整棵行政区树写入数据库（按编码 upsert，并删除新树中不存在的编码）
// 约束：单事务，导入后表内容与传入的树一致；ord 记录数据源中的顺序，加载时据此还原。
func (s *Store) ImportRegions(ctx context.Context, regions []division.Region) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	insR, err := tx.PrepareContext(ctx, `INSERT INTO _div_regions(code,name,division_type,codename,ord) VALUES($1,$2,$3,$4,$5)
        ON CONFLICT (code) DO UPDATE SET name=EXCLUDED.name, division_type=EXCLUDED.division_type, codename=EXCLUDED.codename, ord=EXCLUDED.ord`)
	if err != nil {
		return err
	}
	defer insR.Close()
	insS, err := tx.PrepareContext(ctx, `INSERT INTO _div_subregions(code,region_code,name,division_type,codename,ord) VALUES($1,$2,$3,$4,$5,$6)
        ON CONFLICT (code) DO UPDATE SET region_code=EXCLUDED.region_code, name=EXCLUDED.name, division_type=EXCLUDED.division_type, codename=EXCLUDED.codename, ord=EXCLUDED.ord`)
	if err != nil {
		return err
	}
	defer insS.Close()
	insL, err := tx.PrepareContext(ctx, `INSERT INTO _div_localities(code,subregion_code,name,division_type,codename,ord) VALUES($1,$2,$3,$4,$5,$6)
        ON CONFLICT (code) DO UPDATE SET subregion_code=EXCLUDED.subregion_code, name=EXCLUDED.name, division_type=EXCLUDED.division_type, codename=EXCLUDED.codename, ord=EXCLUDED.ord`)
	if err != nil {
		return err
	}
	defer insL.Close()

	var nS, nL int
	for i, r := range regions {
		if _, err = insR.ExecContext(ctx, r.Code, r.Name, r.Type, r.Codename, i); err != nil {
			return fmt.Errorf("region %d: %w", r.Code, err)
		}
		for j, sub := range r.SubRegions {
			if _, err = insS.ExecContext(ctx, sub.Code, r.Code, sub.Name, sub.Type, sub.Codename, j); err != nil {
				return fmt.Errorf("subregion %d: %w", sub.Code, err)
			}
			nS++
			for k, loc := range sub.Localities {
				if _, err = insL.ExecContext(ctx, loc.Code, sub.Code, loc.Name, loc.Type, loc.Codename, k); err != nil {
					return fmt.Errorf("locality %d: %w", loc.Code, err)
				}
				nL++
			}
		}
	}
	pruned, err := pruneDivisions(ctx, tx, regions)
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logger.For("store").Info("division_import_ok", "regions", len(regions), "subregions", nS, "localities", nL, "pruned", pruned)
	return nil
}

// pruneDivisions：删除不在 regions 中的编码，子级先删
// 约束：编码列表不能为 nil，pq.Array(nil) 绑定为 NULL 会使 <> ALL 恒为 NULL 而不删除。
func pruneDivisions(ctx context.Context, tx *sql.Tx, regions []division.Region) (int64, error) {
	rc, sc, lc := []int64{}, []int64{}, []int64{}
	for _, r := range regions {
		rc = append(rc, int64(r.Code))
		for _, sub := range r.SubRegions {
			sc = append(sc, int64(sub.Code))
			for _, loc := range sub.Localities {
				lc = append(lc, int64(loc.Code))
			}
		}
	}
	var total int64
	for _, q := range []struct {
		table string
		codes []int64
	}{
		{"_div_localities", lc},
		{"_div_subregions", sc},
		{"_div_regions", rc},
	} {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+q.table+` WHERE code <> ALL($1)`, pq.Array(q.codes))
		if err != nil {
			return 0, fmt.Errorf("prune %s: %w", q.table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// 文档注释：从数据库还原行政区树
// 约束：父编码不存在的子项丢弃并记录 debug 日志。
func (s *Store) LoadRegions(ctx context.Context) ([]division.Region, error) {
	var regions []division.Region
	regionIdx := map[int]int{}
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, division_type, codename FROM _div_regions ORDER BY ord, code`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var r division.Region
		if err := rows.Scan(&r.Code, &r.Name, &r.Type, &r.Codename); err != nil {
			rows.Close()
			return nil, err
		}
		regionIdx[r.Code] = len(regions)
		regions = append(regions, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	type pos struct{ r, s int }
	subIdx := map[int]pos{}
	rows, err = s.db.QueryContext(ctx, `SELECT code, region_code, name, division_type, codename FROM _div_subregions ORDER BY region_code, ord, code`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var sub division.SubRegion
		var parent int
		if err := rows.Scan(&sub.Code, &parent, &sub.Name, &sub.Type, &sub.Codename); err != nil {
			rows.Close()
			return nil, err
		}
		ri, ok := regionIdx[parent]
		if !ok {
			logger.For("store").Debug("division_orphan_subregion", "code", sub.Code, "parent", parent)
			continue
		}
		subIdx[sub.Code] = pos{r: ri, s: len(regions[ri].SubRegions)}
		regions[ri].SubRegions = append(regions[ri].SubRegions, sub)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT code, subregion_code, name, division_type, codename FROM _div_localities ORDER BY subregion_code, ord, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var loc division.Locality
		var parent int
		if err := rows.Scan(&loc.Code, &parent, &loc.Name, &loc.Type, &loc.Codename); err != nil {
			return nil, err
		}
		p, ok := subIdx[parent]
		if !ok {
			logger.For("store").Debug("division_orphan_locality", "code", loc.Code, "parent", parent)
			continue
		}
		sub := &regions[p.r].SubRegions[p.s]
		sub.Localities = append(sub.Localities, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.For("store").Debug("division_load_db_done", "regions", len(regions))
	return regions, nil
}

// Totals：累计与当日查询/访客数
type Totals struct {
	Total         int64 `json:"total"`
	TotalVisitors int64 `json:"total_visitors"`
	Today         int64 `json:"today"`
	TodayVisitors int64 `json:"today_visitors"`
}

// IncrStats：查询计数加一；newVisitor 为真时访客数同时加一
func (s *Store) IncrStats(ctx context.Context, newVisitor bool) error {
	v := 0
	if newVisitor {
		v = 1
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE _addr_stats_total SET total_queries=total_queries+1, total_visitors=total_visitors+$1 WHERE id=1`, v); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _addr_stats_daily(day, queries, visitors) VALUES(current_date, 1, $1)
        ON CONFLICT (day) DO UPDATE SET queries=_addr_stats_daily.queries+1, visitors=_addr_stats_daily.visitors+EXCLUDED.visitors`, v)
	return err
}

func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	if err := s.db.QueryRowContext(ctx, `SELECT total_queries, total_visitors FROM _addr_stats_total WHERE id=1`).Scan(&t.Total, &t.TotalVisitors); err != nil {
		return nil, err
	}
	err := s.db.QueryRowContext(ctx, `SELECT queries, visitors FROM _addr_stats_daily WHERE day=current_date`).Scan(&t.Today, &t.TodayVisitors)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	logger.For("store").Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}
