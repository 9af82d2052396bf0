package repository

import "gorm.io/gorm"

func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return ""
	}
	return db.Dialector.Name()
}

// likeOperator postgres 下用 ILIKE 做大小写不敏感模糊匹配，其它方言退回 LIKE。
func likeOperator(db *gorm.DB) string {
	if dbDialectName(db) == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}

// dayBucketExpr 按天聚合时的日期表达式，返回 YYYY-MM-DD 文本。
func dayBucketExpr(db *gorm.DB, column string) string {
	if dbDialectName(db) == "postgres" {
		return "to_char(" + column + ", 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', " + column + ")"
}
