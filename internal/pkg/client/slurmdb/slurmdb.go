package slurmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"trainjob/config"
	"trainjob/internal/pkg/model"
)

// Client wraps a read-only GORM connection to the Slurm accounting database.
type Client struct {
	DB          *gorm.DB
	ClusterName string
	logger      *slog.Logger
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// New creates a read-only GORM Client configured from config.Slurmdb.
func New(cfg config.Slurmdb, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.ClusterName) == "" {
		return nil, fmt.Errorf("slurmdb: ClusterName is required")
	}
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("build dsn", "dsn", redactDSN(dsn, cfg.Password))

	gcfg := &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Warn),
	}

	db, err := gorm.Open(mysql.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	// Tune the underlying connection pool
	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if d := parseDuration(cfg.ConnMaxLifetime); d > 0 {
			sqlDB.SetConnMaxLifetime(d)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}
	}

	enforceReadOnly(db)

	return &Client{DB: db, ClusterName: cfg.ClusterName, logger: logger}, nil
}

// buildDSN constructs a go-sql-driver/mysql DSN:
// user:pass@tcp(host:port)/dbname?param=value
func buildDSN(cfg config.Slurmdb) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("slurmdb: host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	creds := cfg.User
	if cfg.Password != "" {
		creds = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
	}
	addr := fmt.Sprintf("tcp(%s:%d)", cfg.Host, port)

	params := make([]string, 0, 8)
	if cfg.Charset != "" {
		params = append(params, "charset="+cfg.Charset)
	}
	if cfg.ParseTime {
		params = append(params, "parseTime=true")
	} else {
		params = append(params, "parseTime=false")
	}
	if cfg.Loc != "" {
		params = append(params, "loc="+url.QueryEscape(cfg.Loc))
	}
	if cfg.TLS != "" {
		params = append(params, "tls="+cfg.TLS)
	}
	// fail fast on an unreachable database
	params = append(params, "timeout=5s", "readTimeout=5s", "writeTimeout=5s")

	return fmt.Sprintf("%s@%s/%s?%s", creds, addr, cfg.Database, strings.Join(params, "&")), nil
}

func redactDSN(dsn, password string) string {
	if password == "" {
		return dsn
	}
	return strings.Replace(dsn, ":"+password+"@", ":***@", 1)
}

// parseDuration returns 0 on empty or invalid duration strings.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default SlurmDB Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default SlurmDB Client.
func Default() *Client { return defaultClient }

// ErrReadOnly is returned for any statement that would modify the database.
var ErrReadOnly = errors.New("slurmdb Client is read-only")

// enforceReadOnly installs GORM callbacks that reject write operations and non-read raw SQL.
func enforceReadOnly(db *gorm.DB) {
	block := func(tx *gorm.DB) {
		_ = tx.AddError(ErrReadOnly)
	}
	_ = db.Callback().Create().Before("gorm:create").Register("trainjob:readonly_create", block)
	_ = db.Callback().Update().Before("gorm:update").Register("trainjob:readonly_update", block)
	_ = db.Callback().Delete().Before("gorm:delete").Register("trainjob:readonly_delete", block)

	_ = db.Callback().Raw().Before("gorm:raw").Register("trainjob:readonly_raw", func(tx *gorm.DB) {
		if isReadStatement(tx.Statement.SQL.String()) {
			return
		}
		_ = tx.AddError(fmt.Errorf("%w: raw SQL must be SELECT/SHOW/DESCRIBE/EXPLAIN", ErrReadOnly))
	})
}

func isReadStatement(sql string) bool {
	up := strings.ToUpper(strings.TrimSpace(sql))
	for _, prefix := range []string{"SELECT", "SHOW", "DESCRIBE", "EXPLAIN"} {
		if strings.HasPrefix(up, prefix) {
			return true
		}
	}
	return false
}

func (c *Client) jobTable() (string, error) {
	if c == nil || c.DB == nil {
		return "", fmt.Errorf("nil slurmdb Client")
	}
	if strings.TrimSpace(c.ClusterName) == "" {
		return "", fmt.Errorf("cluster name is empty in slurmdb Client")
	}
	return model.JobTableName(c.ClusterName), nil
}

// GetJob returns the latest accounting record of jobID. A requeued job has
// one row per submission, the most recent one wins.
func (c *Client) GetJob(ctx context.Context, jobID uint32) (*model.Job, error) {
	table, err := c.jobTable()
	if err != nil {
		return nil, err
	}
	var job model.Job
	if err := c.DB.WithContext(ctx).
		Table(table).
		Where("id_job = ?", jobID).
		Order("time_submit DESC").
		First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobsByNamePaged returns jobs submitted under name, newest first, and
// the total count before paging.
func (c *Client) GetJobsByNamePaged(ctx context.Context, name string, offset, limit int) (model.Jobs, int64, error) {
	table, err := c.jobTable()
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, 0, fmt.Errorf("job name is required")
	}
	base := c.DB.WithContext(ctx).Table(table).Where("job_name = ?", name).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	res := make(model.Jobs, 0)
	q := base.Order("time_submit DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&res).Error; err != nil {
		return nil, 0, err
	}
	return res, total, nil
}
