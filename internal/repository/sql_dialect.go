package repository

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	if name := strings.ToLower(strings.TrimSpace(db.Dialector.Name())); name != "" {
		return name
	}
	return "sqlite"
}

// keywordCondition 构建多列模糊匹配条件：postgres 使用 ILIKE，其余使用 LIKE。
// 关键字中的通配符按字面匹配；没有可用列或关键字为空时返回空条件。
func keywordCondition(db *gorm.DB, keyword string, columns ...string) (string, []interface{}) {
	return keywordConditionByDialect(dbDialectName(db), keyword, columns...)
}

func keywordConditionByDialect(dialect, keyword string, columns ...string) (string, []interface{}) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", nil
	}
	operator := "LIKE"
	if dialect == "postgres" || dialect == "postgresql" {
		operator = "ILIKE"
	}
	pattern := "%" + likeEscaper.Replace(keyword) + "%"

	var (
		parts []string
		args  []interface{}
	)
	for _, column := range columns {
		column = strings.TrimSpace(column)
		if column == "" {
			continue
		}
		parts = append(parts, column+" "+operator+` ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
