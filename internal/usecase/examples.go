package usecase

// defaultExamples are offered on the welcome screen until the first question.
var defaultExamples = []string{
	"查询所有销售额超过1000元的订单",
	"统计每个部门的平均工资和员工数量",
	"找出近30天内购买次数最多的前10名客户",
}
