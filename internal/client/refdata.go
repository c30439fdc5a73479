package client

import (
	"context"
	"net/http"
	"net/url"
)

// GetTeam 查询团队参考数据,不存在时返回 nil
func (c *Client) GetTeam(ctx context.Context, teamID string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("filter", "id=eq."+teamID)

	var result struct {
		Data []map[string]interface{} `json:"data"`
	}
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "refdata:/v2/entities/team",
		path:     c.paths.RefData + "/v2/entities/team",
		query:    params,
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return result.Data[0], nil
}

// GetStaffID 按邮箱查询员工 ID,不存在时返回 nil
func (c *Client) GetStaffID(ctx context.Context, email string) (*string, error) {
	params := url.Values{}
	params.Set("filter", "email=eq."+email)

	var staff []struct {
		StaffID *string `json:"staffid"`
	}
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "opdata:/v2/staff",
		path:     c.paths.OpData + "/v2/staff",
		query:    params,
	}, &staff)
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return nil, nil
	}
	return staff[0].StaffID, nil
}
