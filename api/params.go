package api

import (
	"errors"
	"strconv"

	"finance/models"
	"finance/report"
	"finance/store"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parseID 解析路径参数 id，失败时直接返回 400
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// queryDate 解析可选的日期查询参数，空值返回零值
func queryDate(c *gin.Context, field string) (models.Date, error) {
	v := c.Query(field)
	if v == "" {
		return models.Date{}, nil
	}
	return report.ParseDate(field, v)
}

// requiredDateRange 解析必填的 start_date 与 end_date
func requiredDateRange(c *gin.Context) (models.Date, models.Date, bool) {
	if c.Query("start_date") == "" || c.Query("end_date") == "" {
		BadRequest(c, "请提供开始日期和结束日期")
		return models.Date{}, models.Date{}, false
	}
	start, err := queryDate(c, "start_date")
	if err != nil {
		BadRequest(c, err.Error())
		return models.Date{}, models.Date{}, false
	}
	end, err := queryDate(c, "end_date")
	if err != nil {
		BadRequest(c, err.Error())
		return models.Date{}, models.Date{}, false
	}
	if end.Before(start) {
		BadRequest(c, "结束日期不能早于开始日期")
		return models.Date{}, models.Date{}, false
	}
	return start, end, true
}

// transactionFilterFromQuery 解析收支列表和汇总共用的过滤参数
func transactionFilterFromQuery(c *gin.Context) (store.TransactionFilter, bool) {
	var f store.TransactionFilter

	if v := c.Query("type"); v != "" {
		typ := models.TransactionType(v)
		if !typ.Valid() {
			BadRequest(c, "无效的类型，应为 income 或 expense")
			return f, false
		}
		f.Type = &typ
	}
	if v := c.Query("category"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			BadRequest(c, "无效的类别ID")
			return f, false
		}
		categoryID := uint(id)
		f.CategoryID = &categoryID
	}

	start, err := queryDate(c, "start_date")
	if err != nil {
		BadRequest(c, err.Error())
		return f, false
	}
	end, err := queryDate(c, "end_date")
	if err != nil {
		BadRequest(c, err.Error())
		return f, false
	}
	if !start.IsZero() || !end.IsZero() {
		f.Range = &store.DateRange{Start: start, End: end}
	}
	return f, true
}

// pagination 解析分页参数
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page"))
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// isValidationError 是否为应返回 400 的业务校验错误
func isValidationError(err error) bool {
	var dateErr *report.InvalidDateError
	var budgetErr *report.InvalidBudgetError
	var mismatchErr *report.CategoryTypeMismatchError
	return errors.As(err, &dateErr) || errors.As(err, &budgetErr) || errors.As(err, &mismatchErr)
}

// respondError 校验错误返回 400，其余按内部错误处理
func respondError(c *gin.Context, err error, fallback string) {
	if isValidationError(err) {
		BadRequest(c, err.Error())
		return
	}
	InternalError(c, SafeErrorMessage(err, fallback))
}
