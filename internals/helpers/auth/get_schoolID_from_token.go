// file: internals/helpers/auth/get_schoolID_from_token.go
package helper

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* ============================================
   Locals Keys (middleware should set these)
   ============================================ */

const (
	LocRole   = "role"    // optional, legacy single role
	LocUserID = "user_id" // string | uuid

	// Single-session ids (from verified middleware → set to locals)
	LocSchoolID  = "school_id"
	LocTeacherID = "teacher_id"
	LocStudentID = "student_id"

	// Generic lists (legacy / optional)
	LocSchoolIDs        = "school_ids"         // []string | []uuid.UUID
	LocSchoolAdminIDs   = "school_admin_ids"   // []string | []uuid.UUID
	LocSchoolTeacherIDs = "school_teacher_ids" // []string | []uuid.UUID
	LocSchoolStudentIDs = "school_student_ids" // []string | []uuid.UUID

	// New structured claims (from verified middleware → set to locals)
	LocRolesGlobal    = "roles_global"     // []string
	LocSchoolRoles    = "school_roles"     // []SchoolRolesEntry | []map[string]any
	LocIsOwner        = "is_owner"         // bool | "true"/"false"
	LocActiveSchoolID = "active_school_id" // string UUID
	LocTeacherRecords = "teacher_records"  // []TeacherRecordEntry | []map[string]any
	LocStudentRecords = "student_records"  // []StudentRecordEntry | []map[string]any
)

/* ============================================
   Types for structured claims
   ============================================ */

type SchoolRolesEntry struct {
	SchoolID uuid.UUID `json:"school_id"`
	Roles    []string  `json:"roles"`
}

type RolesClaim struct {
	RolesGlobal []string           `json:"roles_global"`
	SchoolRoles []SchoolRolesEntry `json:"school_roles"`
}

type TeacherRecordEntry struct {
	SchoolTeacherID uuid.UUID `json:"school_teacher_id"`
	SchoolID        uuid.UUID `json:"school_id"`
}

type StudentRecordEntry struct {
	SchoolStudentID uuid.UUID `json:"school_student_id"`
	SchoolID        uuid.UUID `json:"school_id"`
}

/* ============================================
   Tiny shared helpers
   ============================================ */

func normalizeLocalsToStrings(v any) []string {
	out := make([]string, 0)
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, it := range t {
			switch vv := it.(type) {
			case string:
				if s := strings.TrimSpace(vv); s != "" {
					out = append(out, s)
				}
			case uuid.UUID:
				if vv != uuid.Nil {
					out = append(out, vv.String())
				}
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case uuid.UUID:
		if t != uuid.Nil {
			out = append(out, t.String())
		}
	case []uuid.UUID:
		for _, id := range t {
			if id != uuid.Nil {
				out = append(out, id.String())
			}
		}
	}
	return out
}

func parseFirstUUIDFromLocals(c *fiber.Ctx, key string) (uuid.UUID, error) {
	v := c.Locals(key)
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, key+" tidak ditemukan di token")
	}
	items := normalizeLocalsToStrings(v)
	if len(items) == 0 {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, key+" kosong di token")
	}
	id, err := uuid.Parse(items[0])
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Format "+key+" tidak valid di token")
	}
	return id, nil
}

func parseUUIDSliceFromLocals(c *fiber.Ctx, key string) ([]uuid.UUID, error) {
	v := c.Locals(key)
	if v == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, key+" tidak ditemukan di token")
	}
	raw := normalizeLocalsToStrings(v)
	if len(raw) == 0 {
		return nil, fiber.NewError(fiber.StatusUnauthorized, key+" kosong di token")
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, key+" berisi UUID tidak valid")
		}
		out = append(out, id)
	}
	return out, nil
}

/* ============================================
   JWT fallback utilities (NO signature verify).
   Pakai HANYA untuk data non-kritis (mis. user id fallback).
   ============================================ */

func readJWTClaims(c *fiber.Ctx) map[string]any {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		token := parts[len(parts)-1]
		seg := strings.Split(token, ".")
		if len(seg) >= 2 {
			if payload, err := base64.RawURLEncoding.DecodeString(seg[1]); err == nil {
				var m map[string]any
				_ = json.Unmarshal(payload, &m)
				if len(m) > 0 {
					return m
				}
			}
		}
	}
	return nil
}

func claimString(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	if v, ok := claims[key]; ok {
		if s, ok2 := v.(string); ok2 {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

/* ============================================
   roles_global & school_roles (STRICT: locals only)
   ============================================ */

func GetRolesGlobal(c *fiber.Ctx) []string {
	v := c.Locals(LocRolesGlobal) // ← hanya locals terverifikasi
	out := make([]string, 0)
	switch t := v.(type) {
	case []string:
		for _, r := range t {
			r = strings.ToLower(strings.TrimSpace(r))
			if r != "" {
				out = append(out, r)
			}
		}
	case []interface{}:
		for _, it := range t {
			if s, ok := it.(string); ok {
				s = strings.ToLower(strings.TrimSpace(s))
				if s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func HasGlobalRole(c *fiber.Ctx, role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range GetRolesGlobal(c) {
		if r == role {
			return true
		}
	}
	return false
}

func GetRole(c *fiber.Ctx) string {
	if v := c.Locals(LocRole); v != nil {
		if s, ok := v.(string); ok {
			return strings.ToLower(strings.TrimSpace(s))
		}
	}
	return ""
}

// --- school_roles parsing (STRICT: NO claims-first) ---

func parseSchoolRoles(c *fiber.Ctx) ([]SchoolRolesEntry, error) {
	v := c.Locals(LocSchoolRoles) // ← hanya locals dari middleware
	if v == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, LocSchoolRoles+" tidak ditemukan di token")
	}

	drain := func(m map[string]any) (SchoolRolesEntry, bool) {
		var e SchoolRolesEntry
		if s, ok := m["school_id"].(string); ok {
			if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
				e.SchoolID = id
			}
		}
		if rr, ok := m["roles"].([]interface{}); ok {
			for _, it := range rr {
				if rs, ok := it.(string); ok {
					rs = strings.ToLower(strings.TrimSpace(rs))
					if rs != "" {
						e.Roles = append(e.Roles, rs)
					}
				}
			}
		}
		return e, e.SchoolID != uuid.Nil && len(e.Roles) > 0
	}

	switch t := v.(type) {
	case []SchoolRolesEntry:
		out := make([]SchoolRolesEntry, 0, len(t))
		for _, mr := range t {
			if mr.SchoolID != uuid.Nil && len(mr.Roles) > 0 {
				out = append(out, mr)
			}
		}
		if len(out) == 0 {
			return nil, fiber.NewError(fiber.StatusUnauthorized, LocSchoolRoles+" kosong")
		}
		return out, nil
	case []map[string]any:
		out := make([]SchoolRolesEntry, 0, len(t))
		for _, m := range t {
			if e, ok := drain(m); ok {
				out = append(out, e)
			}
		}
		if len(out) == 0 {
			return nil, fiber.NewError(fiber.StatusUnauthorized, LocSchoolRoles+" kosong/invalid")
		}
		return out, nil
	case []interface{}:
		out := make([]SchoolRolesEntry, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				if e, ok := drain(m); ok {
					out = append(out, e)
				}
			}
		}
		if len(out) == 0 {
			return nil, fiber.NewError(fiber.StatusUnauthorized, LocSchoolRoles+" kosong/invalid")
		}
		return out, nil
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, LocSchoolRoles+" format tidak didukung")
}

func getSchoolIDsFromSchoolRoles(c *fiber.Ctx) ([]uuid.UUID, error) {
	entries, err := parseSchoolRoles(c)
	if err != nil {
		return nil, err
	}
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.SchoolID]; !ok {
			seen[e.SchoolID] = struct{}{}
			out = append(out, e.SchoolID)
		}
	}
	if len(out) == 0 {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "school_id tidak ada pada school_roles")
	}
	return out, nil
}

/* ============================================
   active_school_id & role flags (STRICT: locals)
   ============================================ */

func GetActiveSchoolIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals(LocActiveSchoolID)
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, LocActiveSchoolID+" tidak ditemukan di token")
	}
	switch t := v.(type) {
	case string:
		id, err := uuid.Parse(strings.TrimSpace(t))
		if err != nil || id == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, LocActiveSchoolID+" tidak valid")
		}
		return id, nil
	case uuid.UUID:
		if t != uuid.Nil {
			return t, nil
		}
	}
	return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, LocActiveSchoolID+" tidak valid")
}

func IsOwner(c *fiber.Ctx) bool {
	if v := c.Locals(LocIsOwner); v != nil {
		if b, ok := v.(bool); ok && b {
			return true
		}
		if s, ok := v.(string); ok && strings.EqualFold(s, "true") {
			return true
		}
	}
	if HasGlobalRole(c, "owner") {
		return true
	}
	return strings.ToLower(GetRole(c)) == "owner"
}

/* ============================================
   teacher_records / student_records (STRICT: locals)
   ============================================ */

type recordPair struct{ SchoolID, SecondID uuid.UUID }

func drainPair(m map[string]any, schoolKey, secondKey string) (recordPair, bool) {
	var rp recordPair
	if s, ok := m[schoolKey].(string); ok {
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			rp.SchoolID = id
		}
	}
	if s, ok := m[secondKey].(string); ok {
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			rp.SecondID = id
		}
	}
	return rp, rp.SchoolID != uuid.Nil && rp.SecondID != uuid.Nil
}

func parsePairsFromLocals(c *fiber.Ctx, localsKey, schoolKey, secondKey string) ([]recordPair, error) {
	// STRICT: hanya locals, tidak mengambil dari JWT mentah
	v := c.Locals(localsKey)
	if v == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, localsKey+" tidak ditemukan di token")
	}
	switch t := v.(type) {
	case []map[string]any:
		out := make([]recordPair, 0, len(t))
		for _, m := range t {
			if rp, ok := drainPair(m, schoolKey, secondKey); ok {
				out = append(out, rp)
			}
		}
		if len(out) == 0 {
			return nil, fiber.NewError(fiber.StatusUnauthorized, localsKey+" kosong/invalid")
		}
		return out, nil
	case []interface{}:
		out := make([]recordPair, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				if rp, ok := drainPair(m, schoolKey, secondKey); ok {
					out = append(out, rp)
				}
			}
		}
		if len(out) == 0 {
			return nil, fiber.NewError(fiber.StatusUnauthorized, localsKey+" kosong/invalid")
		}
		return out, nil
	case []TeacherRecordEntry:
		if localsKey == LocTeacherRecords {
			out := make([]recordPair, 0, len(t))
			for _, r := range t {
				if r.SchoolID != uuid.Nil && r.SchoolTeacherID != uuid.Nil {
					out = append(out, recordPair{r.SchoolID, r.SchoolTeacherID})
				}
			}
			if len(out) == 0 {
				return nil, fiber.NewError(fiber.StatusUnauthorized, localsKey+" kosong")
			}
			return out, nil
		}
	case []StudentRecordEntry:
		if localsKey == LocStudentRecords {
			out := make([]recordPair, 0, len(t))
			for _, r := range t {
				if r.SchoolID != uuid.Nil && r.SchoolStudentID != uuid.Nil {
					out = append(out, recordPair{r.SchoolID, r.SchoolStudentID})
				}
			}
			if len(out) == 0 {
				return nil, fiber.NewError(fiber.StatusUnauthorized, localsKey+" kosong")
			}
			return out, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, localsKey+" format tidak didukung")
}

func parseTeacherRecordsFromLocals(c *fiber.Ctx) ([]TeacherRecordEntry, error) {
	pairs, err := parsePairsFromLocals(c, LocTeacherRecords, "school_id", "school_teacher_id")
	if err != nil {
		return nil, err
	}
	out := make([]TeacherRecordEntry, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, TeacherRecordEntry{SchoolTeacherID: p.SecondID, SchoolID: p.SchoolID})
	}
	return out, nil
}

func parseStudentRecordsFromLocals(c *fiber.Ctx) ([]StudentRecordEntry, error) {
	pairs, err := parsePairsFromLocals(c, LocStudentRecords, "school_id", "school_student_id")
	if err != nil {
		return nil, err
	}
	out := make([]StudentRecordEntry, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, StudentRecordEntry{SchoolStudentID: p.SecondID, SchoolID: p.SchoolID})
	}
	return out, nil
}

func GetSchoolStudentIDForSchool(c *fiber.Ctx, schoolID uuid.UUID) (uuid.UUID, error) {
	if schoolID == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "school_id wajib")
	}
	recs, err := parseStudentRecordsFromLocals(c)
	if err != nil {
		return uuid.Nil, err
	}
	for _, r := range recs {
		if r.SchoolID == schoolID && r.SchoolStudentID != uuid.Nil {
			return r.SchoolStudentID, nil
		}
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "school_student_id untuk school tersebut tidak ada di token")
}

/* ============================================
   Single-tenant getters (compat + new token)
   ============================================ */

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, err := parseFirstUUIDFromLocals(c, LocUserID); err == nil && id != uuid.Nil {
		return id, nil
	}
	if v := c.Locals("sub"); v != nil {
		if s, ok := v.(string); ok {
			if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
				c.Locals(LocUserID, id.String())
				return id, nil
			}
		}
	}
	if v := c.Locals("id"); v != nil {
		if s, ok := v.(string); ok {
			if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
				c.Locals(LocUserID, id.String())
				return id, nil
			}
		}
	}
	// Fallback terakhir: dari JWT mentah (non-kritis untuk auth scoping)
	claims := readJWTClaims(c)
	for _, k := range []string{"id", "sub", "user_id"} {
		if s := claimString(claims, k); s != "" {
			if id, err := uuid.Parse(s); err == nil {
				c.Locals(LocUserID, id.String())
				return id, nil
			}
		}
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user_id tidak ditemukan di token")
}

// GetSchoolIDFromToken: scope admin dari sesi aktif; jatuh ke daftar
// admin lama kalau token belum single-session.
func GetSchoolIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, err := GetActiveSchoolIDFromToken(c); err == nil && id != uuid.Nil {
		return id, nil
	}
	if id, err := parseFirstUUIDFromLocals(c, LocSchoolID); err == nil {
		return id, nil
	}
	if id, err := parseFirstUUIDFromLocals(c, LocSchoolAdminIDs); err == nil {
		return id, nil
	}
	if ids, err := getSchoolIDsFromSchoolRoles(c); err == nil && len(ids) > 0 {
		return ids[0], nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "School ID tidak ditemukan di token")
}

// Prefer teacher scope
func GetSchoolIDFromTokenPreferTeacher(c *fiber.Ctx) (uuid.UUID, error) {
	if recs, err := parseTeacherRecordsFromLocals(c); err == nil && len(recs) > 0 {
		if act, err2 := GetActiveSchoolIDFromToken(c); err2 == nil && act != uuid.Nil {
			for _, r := range recs {
				if r.SchoolID == act {
					return act, nil
				}
			}
		}
		return recs[0].SchoolID, nil
	}
	if id, err := GetSchoolIDFromToken(c); err == nil {
		return id, nil
	}
	if ids, err := parseUUIDSliceFromLocals(c, LocSchoolIDs); err == nil && len(ids) > 0 {
		return ids[0], nil
	}
	if ids, err := getSchoolIDsFromSchoolRoles(c); err == nil && len(ids) > 0 {
		return ids[0], nil
	}
	return parseFirstUUIDFromLocals(c, LocSchoolAdminIDs)
}

/* ============================================
   Multi-tenant getter (STRICT-ish)
   ============================================ */

func GetSchoolIDsFromToken(c *fiber.Ctx) ([]uuid.UUID, error) {
	// 1) langsung dari locals (diset middleware)
	if ids, err := parseUUIDSliceFromLocals(c, LocSchoolIDs); err == nil && len(ids) > 0 {
		return ids, nil
	}

	// 2) teacher_records → daftar school
	if recs, err := parseTeacherRecordsFromLocals(c); err == nil && len(recs) > 0 {
		seen := map[uuid.UUID]struct{}{}
		out := make([]uuid.UUID, 0, len(recs))
		for _, r := range recs {
			if _, ok := seen[r.SchoolID]; !ok {
				seen[r.SchoolID] = struct{}{}
				out = append(out, r.SchoolID)
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	// 3) student_records → daftar school
	if recs, err := parseStudentRecordsFromLocals(c); err == nil && len(recs) > 0 {
		seen := map[uuid.UUID]struct{}{}
		out := make([]uuid.UUID, 0, len(recs))
		for _, r := range recs {
			if _, ok := seen[r.SchoolID]; !ok {
				seen[r.SchoolID] = struct{}{}
				out = append(out, r.SchoolID)
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	// 4) fallback dari school_roles terstruktur
	if ids, err := getSchoolIDsFromSchoolRoles(c); err == nil && len(ids) > 0 {
		return ids, nil
	}

	// 5) terakhir: kumpulkan dari locals legacy per peran
	groups := []string{LocSchoolTeacherIDs, LocSchoolAdminIDs, LocSchoolStudentIDs}
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, 4)
	var anyFound bool
	for _, key := range groups {
		v := c.Locals(key)
		if v == nil {
			continue
		}
		anyFound = true
		for _, s := range normalizeLocalsToStrings(v) {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, key+" berisi UUID tidak valid")
			}
			if id == uuid.Nil {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	if !anyFound || len(out) == 0 {
		if id, err := GetSchoolIDFromTokenPreferTeacher(c); err == nil && id != uuid.Nil {
			return []uuid.UUID{id}, nil
		}
		return nil, fiber.NewError(fiber.StatusUnauthorized, "School ID tidak ditemukan di token")
	}
	return out, nil
}
