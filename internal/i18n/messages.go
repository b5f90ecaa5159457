package i18n

import "github.com/bluepay/internal/constants"

var messages = map[string]map[string]string{
	constants.LocaleEnUS: {
		"error.bad_request":                       "Invalid request parameters",
		"error.unauthorized":                      "Please sign in first",
		"error.forbidden":                         "You do not have permission to perform this action",
		"error.internal":                          "Internal server error",
		"error.too_many_requests":                 "Too many requests, please try again later",
		"error.rate_limited":                      "Too many requests, please retry in %d seconds",
		"error.rate_limit_unavailable":            "Rate limiter is temporarily unavailable",
		"error.auth_header_missing":               "Authorization header is missing",
		"error.auth_header_invalid":               "Authorization header is invalid",
		"error.token_invalid":                     "Session is invalid or expired",
		"error.token_revoked":                     "Session has been revoked, please sign in again",
		"error.user_id_invalid":                   "Invalid user id",
		"error.user_id_type_invalid":              "Invalid user id type",
		"error.register_failed":                   "Registration failed",
		"error.login_failed":                      "Login failed",
		"error.login_invalid":                     "Incorrect email or password",
		"error.user_disabled":                     "This account has been disabled",
		"error.email_invalid":                     "Invalid email address",
		"error.email_exists":                      "Email is already registered",
		"error.password_weak":                     "Password does not meet the security policy",
		"error.password_min_length":               "Password must be at least %d characters",
		"error.password_too_long":                 "Password must be at most %d bytes",
		"error.password_require_upper":            "Password must contain an uppercase letter",
		"error.password_require_lower":            "Password must contain a lowercase letter",
		"error.password_require_number":           "Password must contain a number",
		"error.password_require_special":          "Password must contain a special character",
		"error.user_fetch_failed":                 "Failed to load user",
		"error.user_not_found":                    "User not found",
		"error.profile_not_found":                 "Profile not found",
		"error.save_failed":                       "Failed to save",
		"error.referral_fetch_failed":             "Failed to load referral information",
		"error.full_name_invalid":                 "Invalid full name",
		"error.phone_number_invalid":              "Invalid phone number",
		"error.locale_invalid":                    "Unsupported language",
		"error.config_fetch_failed":               "Failed to load configuration",
		"error.withdrawal_code_invalid":           "Invalid activation code",
		"error.withdrawal_duplicate_pending":      "You already have a withdrawal request in progress",
		"error.withdrawal_insufficient_earnings":  "Insufficient referral earnings",
		"error.withdrawal_submit_failed":          "Failed to submit withdrawal request",
		"error.withdrawal_fetch_failed":           "Failed to load withdrawal requests",
		"error.withdrawal_amount_invalid":         "Invalid withdrawal amount",
		"error.withdrawal_amount_below_min":       "Withdrawal amount is below the minimum",
		"error.withdrawal_amount_above_max":       "Withdrawal amount exceeds the maximum",
		"error.withdrawal_account_name_invalid":   "Invalid account name",
		"error.withdrawal_account_number_invalid": "Invalid account number",
		"error.withdrawal_bank_name_invalid":      "Invalid bank name",
		"error.withdrawal_flow_invalid":           "Invalid withdrawal flow",
		"error.withdrawal_not_found":              "Withdrawal request not found",
		"error.withdrawal_status_invalid":         "Withdrawal request has already been processed",
		"error.withdrawal_action_invalid":         "Invalid review action",
		"error.withdrawal_review_failed":          "Failed to review withdrawal request",
		"error.withdrawal_consistency":            "Withdrawal approved but earnings debit failed, a reconciliation item was recorded",
		"error.proof_required":                    "Payment screenshot is required",
		"error.proof_invalid":                     "Payment screenshot must be a JPEG, PNG or WebP image",
		"error.proof_too_large":                   "Payment screenshot is too large",
		"error.proof_storage_failed":              "Failed to store payment screenshot",
		"error.proof_link_expired":                "Screenshot link has expired",
		"error.proof_link_invalid":                "Screenshot link is invalid",
		"error.proof_not_found":                   "Screenshot not found",
		"error.upgrade_already_upgraded":          "Account is already upgraded",
		"error.upgrade_pending":                   "An upgrade request is already awaiting review",
		"error.upgrade_submit_failed":             "Failed to submit upgrade request",
		"error.upgrade_fetch_failed":              "Failed to load upgrade requests",
		"error.upgrade_action_invalid":            "Invalid review action",
		"error.upgrade_not_found":                 "Upgrade request not found",
		"error.upgrade_status_invalid":            "Upgrade request has already been processed",
		"error.upgrade_review_failed":             "Failed to review upgrade request",
		"error.wallet_insufficient_balance":       "Insufficient wallet balance",
		"error.wallet_account_not_found":          "Wallet account not found",
		"error.wallet_fetch_failed":               "Failed to load wallet",
		"error.wallet_withdraw_failed":            "Failed to withdraw from wallet",
		"error.wallet_amount_invalid":             "Invalid wallet amount",
		"error.wallet_adjust_failed":              "Failed to adjust wallet",
		"error.reconciliation_not_found":          "Reconciliation item not found",
		"error.reconciliation_resolved":           "Reconciliation item is already resolved",
		"error.reconciliation_fetch_failed":       "Failed to load reconciliation items",
		"error.reconciliation_resolve_failed":     "Failed to resolve reconciliation item",
		"error.role_invalid":                      "Invalid role",
		"error.role_fetch_failed":                 "Failed to load roles",
		"error.role_update_failed":                "Failed to update roles",
		"error.role_self_revoke_forbidden":        "You cannot revoke your own admin role",
		"error.user_self_disable_forbidden":       "You cannot disable your own account",
		"error.user_status_invalid":               "Status must be active or disabled",
		"error.user_status_update_failed":         "Failed to update user status",
		"error.role_audit_fetch_failed":           "Failed to load role audit logs",
		"error.persistence_failed":                "Storage is temporarily unavailable, please retry",
	},
	constants.LocaleZhCN: {
		"error.bad_request":                       "请求参数错误",
		"error.unauthorized":                      "请先登录",
		"error.forbidden":                         "无权执行该操作",
		"error.internal":                          "服务器内部错误",
		"error.too_many_requests":                 "请求过于频繁，请稍后再试",
		"error.rate_limited":                      "请求过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":            "限流服务暂不可用",
		"error.auth_header_missing":               "缺少认证头",
		"error.auth_header_invalid":               "认证头格式错误",
		"error.token_invalid":                     "登录已失效，请重新登录",
		"error.token_revoked":                     "登录已被注销，请重新登录",
		"error.user_id_invalid":                   "用户 ID 无效",
		"error.user_id_type_invalid":              "用户 ID 类型无效",
		"error.register_failed":                   "注册失败",
		"error.login_failed":                      "登录失败",
		"error.login_invalid":                     "邮箱或密码错误",
		"error.user_disabled":                     "账号已被禁用",
		"error.email_invalid":                     "邮箱格式错误",
		"error.email_exists":                      "邮箱已被注册",
		"error.password_weak":                     "密码不符合安全策略",
		"error.password_min_length":               "密码长度至少为 %d 位",
		"error.password_too_long":                 "密码长度不能超过 %d 字节",
		"error.password_require_upper":            "密码必须包含大写字母",
		"error.password_require_lower":            "密码必须包含小写字母",
		"error.password_require_number":           "密码必须包含数字",
		"error.password_require_special":          "密码必须包含特殊字符",
		"error.user_fetch_failed":                 "获取用户失败",
		"error.user_not_found":                    "用户不存在",
		"error.profile_not_found":                 "用户资料不存在",
		"error.save_failed":                       "保存失败",
		"error.referral_fetch_failed":             "获取推广信息失败",
		"error.full_name_invalid":                 "姓名无效",
		"error.phone_number_invalid":              "手机号无效",
		"error.locale_invalid":                    "不支持的语言",
		"error.config_fetch_failed":               "获取配置失败",
		"error.withdrawal_code_invalid":           "激活码无效",
		"error.withdrawal_duplicate_pending":      "已有处理中的提现申请",
		"error.withdrawal_insufficient_earnings":  "推广收益不足",
		"error.withdrawal_submit_failed":          "提交提现申请失败",
		"error.withdrawal_fetch_failed":           "获取提现申请失败",
		"error.withdrawal_amount_invalid":         "提现金额无效",
		"error.withdrawal_amount_below_min":       "提现金额低于最小值",
		"error.withdrawal_amount_above_max":       "提现金额超过最大值",
		"error.withdrawal_account_name_invalid":   "账户名无效",
		"error.withdrawal_account_number_invalid": "银行账号无效",
		"error.withdrawal_bank_name_invalid":      "银行名称无效",
		"error.withdrawal_flow_invalid":           "提现流程无效",
		"error.withdrawal_not_found":              "提现申请不存在",
		"error.withdrawal_status_invalid":         "提现申请已处理",
		"error.withdrawal_action_invalid":         "审核动作无效",
		"error.withdrawal_review_failed":          "审核提现申请失败",
		"error.withdrawal_consistency":            "提现已通过但收益扣减失败，已记录对账事项",
		"error.proof_required":                    "请上传付款截图",
		"error.proof_invalid":                     "付款截图必须为 JPEG、PNG 或 WebP 图片",
		"error.proof_too_large":                   "付款截图过大",
		"error.proof_storage_failed":              "付款截图存储失败",
		"error.proof_link_expired":                "截图链接已过期",
		"error.proof_link_invalid":                "截图链接无效",
		"error.proof_not_found":                   "截图不存在",
		"error.upgrade_already_upgraded":          "账户已升级",
		"error.upgrade_pending":                   "已有待审核的升级申请",
		"error.upgrade_submit_failed":             "提交升级申请失败",
		"error.upgrade_fetch_failed":              "获取升级申请失败",
		"error.upgrade_action_invalid":            "审核动作无效",
		"error.upgrade_not_found":                 "升级申请不存在",
		"error.upgrade_status_invalid":            "升级申请已处理",
		"error.upgrade_review_failed":             "审核升级申请失败",
		"error.wallet_insufficient_balance":       "钱包余额不足",
		"error.wallet_account_not_found":          "钱包账户不存在",
		"error.wallet_fetch_failed":               "获取钱包失败",
		"error.wallet_withdraw_failed":            "钱包提现失败",
		"error.wallet_amount_invalid":             "钱包金额无效",
		"error.wallet_adjust_failed":              "调整钱包失败",
		"error.reconciliation_not_found":          "对账事项不存在",
		"error.reconciliation_resolved":           "对账事项已处理",
		"error.reconciliation_fetch_failed":       "获取对账事项失败",
		"error.reconciliation_resolve_failed":     "处理对账事项失败",
		"error.role_invalid":                      "角色无效",
		"error.role_fetch_failed":                 "获取角色失败",
		"error.role_update_failed":                "更新角色失败",
		"error.role_self_revoke_forbidden":        "不能撤销自己的 admin 角色",
		"error.user_self_disable_forbidden":       "不能禁用自己的账号",
		"error.user_status_invalid":               "状态只能为 active 或 disabled",
		"error.user_status_update_failed":         "更新用户状态失败",
		"error.role_audit_fetch_failed":           "获取角色审计日志失败",
		"error.persistence_failed":                "存储暂时不可用，请重试",
	},
}
