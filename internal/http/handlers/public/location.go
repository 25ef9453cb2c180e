package public

import (
	"strconv"

	"github.com/bazaar-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListProvinces 省份列表
func (h *Handler) ListProvinces(c *gin.Context) {
	provinces, err := h.LocationService.ListProvinces()
	if err != nil {
		respondLocationError(c, err)
		return
	}
	response.Success(c, provinces)
}

// ListDistricts 按省份查询区县
func (h *Handler) ListDistricts(c *gin.Context) {
	provinceID, err := strconv.ParseUint(c.Query("province_id"), 10, 64)
	if err != nil || provinceID == 0 {
		respondError(c, response.CodeBadRequest, "province_id is invalid", nil)
		return
	}
	districts, err := h.LocationService.ListDistricts(uint(provinceID))
	if err != nil {
		respondLocationError(c, err)
		return
	}
	response.Success(c, districts)
}

// ListWards 按区县查询坊
func (h *Handler) ListWards(c *gin.Context) {
	districtID, err := strconv.ParseUint(c.Query("district_id"), 10, 64)
	if err != nil || districtID == 0 {
		respondError(c, response.CodeBadRequest, "district_id is invalid", nil)
		return
	}
	wards, err := h.LocationService.ListWards(uint(districtID))
	if err != nil {
		respondLocationError(c, err)
		return
	}
	response.Success(c, wards)
}
