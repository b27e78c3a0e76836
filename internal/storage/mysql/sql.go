package mysql

const insertInquirySQL = `
INSERT INTO contact_inquiries
  (name, email, phone, subject, message, created_at)
VALUES
  (?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP(3)))
`

const listInquiriesSQL = `
SELECT id, name, email, phone, subject, message, created_at
FROM contact_inquiries
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const countInquiriesSQL = `SELECT COUNT(*) FROM contact_inquiries`

// Audit ids are client generated, so a replayed insert is a no-op.
const insertAuditSQL = `
INSERT INTO staff_audit
  (id, actor_id, actor, action, target, detail, at)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE id = id
`

const recentAuditSQL = `
SELECT id, actor_id, actor, action, target, detail, at
FROM staff_audit
ORDER BY at DESC
LIMIT ?
`
