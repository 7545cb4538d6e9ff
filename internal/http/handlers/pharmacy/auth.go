package pharmacy

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

// Login 药房人员登录，返回绑定的药房
func (h *Handler) Login(c *gin.Context) {
	shared.HandleLogin(c, h.AuthService, constants.RolePharmacy, func(operator *models.Operator) gin.H {
		pharmacy, err := h.PharmacyRepo.GetByOperatorID(operator.ID)
		if err != nil || pharmacy == nil {
			return gin.H{"pharmacy": nil}
		}
		return gin.H{"pharmacy": pharmacy}
	})
}
