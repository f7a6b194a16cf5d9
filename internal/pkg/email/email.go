package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/qs3c/medquiz_go_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendWelcome 发送欢迎邮件
func (s *Service) SendWelcome(to, name string) error {
	subject := "欢迎加入 - MedQuiz 医学题库平台"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">欢迎加入！</h2>
        <p>您好，%s！</p>
        <p>感谢您注册 MedQuiz 医学题库平台。</p>
        <p>现在您可以：</p>
        <ul>
            <li>按科目与章节组合练习题目</li>
            <li>限时模拟测验并查看解析</li>
            <li>回顾历史成绩，跟踪学习进度</li>
        </ul>
        <p>开始练习吧！</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, name)

	return s.sendHTML(to, subject, body)
}

// SendPaymentReceipt 发送支付成功回执
func (s *Service) SendPaymentReceipt(to, name, reference string, amountNaira float64, expiresAt string) error {
	subject := "订阅开通成功 - MedQuiz 医学题库平台"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">支付成功</h2>
        <p>您好，%s！</p>
        <p>您的订阅已开通，详情如下：</p>
        <div style="background-color: #f3f4f6; padding: 15px; margin: 20px 0;">
            <p>交易参考号：%s</p>
            <p>金额：₦%.2f</p>
            <p>有效期至：%s</p>
        </div>
        <p>感谢您的支持，祝学习顺利！</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, name, reference, amountNaira, expiresAt)

	return s.sendHTML(to, subject, body)
}

// sendHTML 发送 HTML 邮件
func (s *Service) sendHTML(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
