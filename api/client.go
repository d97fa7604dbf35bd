/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// StatusError is a non-okay status in the response body.
type StatusError struct {
	Status  Status
	Message string
}

func (r *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status: status=%v, message=%v", r.Status, r.Message)
}

// Client is a client of the inspection API.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (r *Client) Topology() (*Topology, error) {
	result := new(Topology)
	if err := r.call("/api/v1/topology", nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Path returns the least-cost path between two node IDs. The result has the StatusNotFound
// status error if there is no path.
func (r *Client) Path(src, dst string) (*Path, error) {
	query := url.Values{}
	query.Set("src", src)
	query.Set("dst", dst)

	result := new(Path)
	if err := r.call("/api/v1/path", query, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Client) Sessions() ([]Session, error) {
	var result []Session
	if err := r.call("/api/v1/session", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Client) call(command string, query url.Values, result interface{}) error {
	u := r.baseURL + command
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	logger.Debugf("REST request: %v", u)

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(fmt.Sprintf("unexpected HTTP status code: %v", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logger.Debugf("REST response: %v", string(body))

	res := new(struct {
		Status  Status          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	})
	if err := json.Unmarshal(body, res); err != nil {
		return err
	}
	if res.Status != StatusOkay {
		return &StatusError{Status: res.Status, Message: res.Message}
	}

	if result == nil {
		// Ignore the query result.
		return nil
	}

	return json.Unmarshal(res.Data, result)
}
