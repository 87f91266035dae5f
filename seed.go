package main

import (
	"context"

	"github.com/rs/zerolog/log"

	vectorx "github.com/nanxi-ai/smartcs/agent/vector"
)

// seedKnowledgeBase embeds the built-in document set into the index and
// persists the artifact pair under dir. Used on first boot when no artifacts
// exist yet.
func seedKnowledgeBase(ctx context.Context, index *vectorx.Index, dir string) error {
	docs, metadata := knowledgeDocuments()
	if err := index.AddBatch(ctx, docs, metadata); err != nil {
		return err
	}
	if err := index.Persist(dir); err != nil {
		return err
	}
	log.Info().Int("documents", len(docs)).Str("path", dir).Msg("knowledge base seeded")
	return nil
}

func knowledgeDocuments() ([]string, []map[string]string) {
	docs := []string{
		`iPhone 15 Pro产品信息：
- 屏幕：6.1英寸超视网膜XDR显示屏
- 处理器：A17 Pro芯片
- 摄像头：4800万像素主摄，支持2倍光学变焦
- 存储：128GB/256GB/512GB/1TB可选
- 价格：7999元起
- 特色：钛金属设计，动作按钮，USB-C接口`,

		`MacBook Pro 14寸产品信息：
- 处理器：M3/M3 Pro/M3 Max芯片可选
- 屏幕：14.2英寸Liquid视网膜XDR显示屏
- 内存：8GB起，最高128GB
- 价格：15999元起
- 特色：ProMotion技术，续航最长22小时，多接口支持`,

		`AirPods Pro 2产品信息：
- 降噪：自适应主动降噪
- 芯片：H2芯片
- 续航：单次使用最长6小时，配合充电盒最长30小时
- 价格：1899元
- 特色：空间音频，自适应通透模式，精准查找`,

		`退换货政策：
1. 自收货之日起7天内，商品未使用且包装完好，可申请无理由退货
2. 非人为损坏的质量问题，自购买之日起15天内可换货
3. 产品享有1年保修服务
4. 退货运费：质量问题由商家承担，个人原因由买家承担
5. 退款时效：商品签收后3-5个工作日内完成退款审核`,

		`配送说明：
1. 正常配送时效：下单后1-3个工作日发货，3-7天送达
2. 偏远地区可能需要额外1-2天
3. 支持顺丰速运、京东物流等多家快递
4. 部分商品支持当日达/次日达服务
5. 可在订单详情中查看物流信息`,

		`支付方式：
支持微信支付、支付宝、银联支付、花呗分期（3/6/12期免息）、信用卡支付和Apple Pay。`,

		`售后服务：
1. 产品享有1年免费保修
2. 可购买AppleCare+延保服务
3. 全国Apple授权服务点支持
4. 7x24小时在线客服
5. 非人为损坏免费维修，人为损坏提供付费维修服务`,

		`发票说明：
1. 支持开具电子发票和纸质发票
2. 发票类型：增值税普通发票、增值税专用发票
3. 开票时效：订单完成后即可申请开票
4. 电子发票会发送到预留邮箱`,

		`订单修改：
1. 订单未发货前可以修改收货地址
2. 订单支付后30分钟内可以取消
3. 如需修改商品，需取消重新下单
4. 联系客服可协助处理订单问题`,

		`AirPods配对方法：
1. 打开充电盒盖子
2. 长按充电盒背面按钮直到状态灯闪烁白色
3. 在iPhone设置中选择蓝牙
4. 在可用设备中点击您的AirPods
注：首次配对后，打开盒盖即可自动连接`,
	}

	metadata := []map[string]string{
		{"category": "product", "type": "iPhone"},
		{"category": "product", "type": "MacBook"},
		{"category": "product", "type": "AirPods"},
		{"category": "faq", "type": "policy"},
		{"category": "faq", "type": "policy"},
		{"category": "faq", "type": "policy"},
		{"category": "faq", "type": "policy"},
		{"category": "faq", "type": "policy"},
		{"category": "faq", "type": "policy"},
		{"category": "tech", "type": "tutorial"},
	}
	return docs, metadata
}
