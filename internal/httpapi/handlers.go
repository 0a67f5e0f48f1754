package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"esnafdefter/backend/internal/domain"
	"esnafdefter/backend/internal/render"
	"esnafdefter/backend/internal/validate"
	"esnafdefter/backend/internal/xid"
)

func pathID(c *gin.Context) (snowflake.ID, error) {
	id, err := xid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, c.Param("id"))
	}
	return id, nil
}

// queryInt reads an optional positive integer; absent yields 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("%w: %s %q", validate.ErrInvalidDate, name, raw)
	}
	return val, nil
}

func (a *API) handleListCustomers(c *gin.Context) {
	balances, err := a.service.ListCustomerBalances(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"items": balances})
}

func (a *API) handleAddCustomer(c *gin.Context) {
	var req domain.CustomerCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		a.writeError(c, http.StatusBadRequest, err)
		return
	}

	customer, err := a.service.AddCustomer(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, customer)
}

func (a *API) handleCustomerDetail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	detail, err := a.service.CustomerDetail(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, detail)
}

func (a *API) handleDeleteCustomer(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.service.DeleteCustomer(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleListLedgerEntries(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	entries, err := a.service.ListLedgerEntries(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"items": entries})
}

func (a *API) handleAddLedgerEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	var req domain.LedgerEntryCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		a.writeError(c, http.StatusBadRequest, err)
		return
	}
	req.CustomerID = id

	entry, err := a.service.AddLedgerEntry(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, entry)
}

func (a *API) handleDeleteLedgerEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.service.DeleteLedgerEntry(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleLedgerTotals(c *gin.Context) {
	totals, err := a.service.AggregateTotals(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, totals)
}

func (a *API) handleListCashEntries(c *gin.Context) {
	entries, err := a.service.ListCashEntries(c.Request.Context(), c.Query("date"))
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"items": entries})
}

func (a *API) handleAddCashEntry(c *gin.Context) {
	var req domain.CashEntryCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		a.writeError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := a.service.AddCashEntry(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, entry)
}

func (a *API) handleDeleteCashEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.service.DeleteCashEntry(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleCashSummary picks the window from the query: a date gives the daily
// summary, year and month together the monthly one, nothing the lifetime one.
func (a *API) handleCashSummary(c *gin.Context) {
	ctx := c.Request.Context()
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		summary, err := a.service.DailySummary(ctx, date)
		if err != nil {
			a.fail(c, err)
			return
		}
		writeJSON(c, http.StatusOK, summary)
		return
	}

	year, month, err := yearMonth(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	var summary domain.CashSummary
	if year > 0 && month > 0 {
		summary, err = a.service.MonthlySummary(ctx, year, month)
	} else {
		summary, err = a.service.LifetimeSummary(ctx)
	}
	if err != nil {
		a.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, summary)
}

func (a *API) handleDebtReport(c *gin.Context) {
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		a.writeError(c, http.StatusBadRequest, err)
		return
	}

	report, err := a.service.BuildDebtReport(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	a.writeReport(c, format, report)
}

func (a *API) handleCashReport(c *gin.Context) {
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		a.writeError(c, http.StatusBadRequest, err)
		return
	}
	year, month, err := yearMonth(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	report, err := a.service.BuildCashReport(c.Request.Context(), year, month)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.writeReport(c, format, report)
}

func yearMonth(c *gin.Context) (int, int, error) {
	year, err := queryInt(c, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(c, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func (a *API) writeReport(c *gin.Context, format render.Format, report domain.Report) {
	if format == render.FormatJSON {
		writeJSON(c, http.StatusOK, report)
		return
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, format, report, a.opts.Render); err != nil {
		a.writeError(c, http.StatusInternalServerError, err)
		return
	}

	disposition := "attachment"
	if format == render.FormatHTML {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, render.FileName(report, format)))
	c.Data(http.StatusOK, render.ContentType(format), buf.Bytes())
}
